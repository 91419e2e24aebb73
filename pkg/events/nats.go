package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes events to core NATS, one subject per event type
// ("lead.confirmed", "earning.released", ...).
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url, clientName string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			log.Printf("[events] nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("[events] nats reconnected: %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.conn.Publish(event.Type, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", event.Type, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}
