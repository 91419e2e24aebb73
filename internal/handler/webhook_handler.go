package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"traderefer/config"
	"traderefer/internal/domain"
	"traderefer/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentWebhookHandler consumes provider success events. Lead unlocks and
// wallet top-ups both arrive here, distinguished by intent metadata. The
// handler always acks duplicates with 200 so the provider stops retrying.
type PaymentWebhookHandler struct {
	leadSvc     *service.LeadService
	businessSvc *service.BusinessService
	cfg         *config.Config
}

func NewPaymentWebhookHandler(leadSvc *service.LeadService, businessSvc *service.BusinessService, cfg *config.Config) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{leadSvc: leadSvc, businessSvc: businessSvc, cfg: cfg}
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret != "" {
		if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Type != domain.EventPaymentIntentSucceeded {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	meta := payload.Data.Object.Metadata
	businessID, err := metaID(meta, "business_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id metadata required"})
		return
	}

	if meta["topup"] == "1" {
		amount, err := strconv.ParseInt(meta["amount_cents"], 10, 64)
		if err != nil || amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents metadata required"})
			return
		}
		if err := h.businessSvc.HandleTopUpSucceeded(businessID, amount, payload.Data.Object.ID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	leadID, err := metaID(meta, "lead_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lead_id metadata required"})
		return
	}
	if err := h.leadSvc.HandlePaymentSucceeded(leadID, businessID, payload.Data.Object.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func metaID(meta map[string]string, key string) (uint, error) {
	id, err := strconv.ParseUint(meta[key], 10, 32)
	return uint(id), err
}
