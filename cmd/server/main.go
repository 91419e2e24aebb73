package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traderefer/config"
	"traderefer/internal/database"
	"traderefer/internal/router"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"
	"traderefer/pkg/payment"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db)

	var pub events.Publisher = events.Noop{}
	if cfg.Events.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.ClientName)
		if err != nil {
			log.Printf("nats unavailable, events disabled: %v", err)
		} else {
			defer natsPub.Close()
			pub = natsPub
		}
	}

	mail := mailer.LogSender{}
	provider := &payment.StubProvider{}

	engine := router.Setup(cfg, db, mail, provider, pub)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	log.Println("server stopped")
}
