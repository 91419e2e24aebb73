package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"traderefer/config"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookSignature(t *testing.T) {
	cfg := &config.Config{Payment: config.PaymentConfig{WebhookSecret: "whsec_test"}}
	h := NewPaymentWebhookHandler(nil, nil, cfg)

	body := []byte(`{"type":"payment_intent.succeeded"}`)
	assert.True(t, h.verifySignature(body, sign("whsec_test", body)))
	assert.False(t, h.verifySignature(body, sign("wrong", body)))
	assert.False(t, h.verifySignature(body, ""))
}

func TestMetaID(t *testing.T) {
	id, err := metaID(map[string]string{"lead_id": "42"}, "lead_id")
	assert.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = metaID(map[string]string{}, "lead_id")
	assert.Error(t, err)
}
