package handler

import (
	"net/http"
	"strconv"
	"strings"

	"traderefer/internal/middleware"
	"traderefer/internal/models"
	"traderefer/internal/service"

	"github.com/gin-gonic/gin"
)

type LeadHandler struct {
	leadSvc    *service.LeadService
	disputeSvc *service.DisputeService
}

func NewLeadHandler(leadSvc *service.LeadService, disputeSvc *service.DisputeService) *LeadHandler {
	return &LeadHandler{leadSvc: leadSvc, disputeSvc: disputeSvc}
}

type createLeadRequest struct {
	BusinessID      uint   `json:"business_id" binding:"required"`
	ConsumerName    string `json:"consumer_name" binding:"required"`
	ConsumerPhone   string `json:"consumer_phone" binding:"required"`
	ConsumerEmail   string `json:"consumer_email"`
	ConsumerSuburb  string `json:"consumer_suburb"`
	ConsumerAddress string `json:"consumer_address"`
	JobDescription  string `json:"job_description" binding:"required"`
	LeadUrgency     string `json:"lead_urgency"`
	ReferralCode    string `json:"referral_code"`
	DeviceHash      string `json:"device_hash"`
}

// Create is the public lead submission endpoint. Resubmitting the same
// consumer phone for the same business returns the existing live lead.
func (h *LeadHandler) Create(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	lead, err := h.leadSvc.Create(service.CreateLeadInput{
		BusinessID:      req.BusinessID,
		ConsumerName:    req.ConsumerName,
		ConsumerPhone:   req.ConsumerPhone,
		ConsumerEmail:   req.ConsumerEmail,
		ConsumerSuburb:  req.ConsumerSuburb,
		ConsumerAddress: req.ConsumerAddress,
		JobDescription:  req.JobDescription,
		LeadUrgency:     req.LeadUrgency,
		ReferralCode:    req.ReferralCode,
		ConsumerIP:      c.ClientIP(),
		DeviceHash:      req.DeviceHash,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":     lead.ID,
		"status": lead.Status,
	})
}

// Verify checks the consumer's verification code and moves the lead to
// VERIFIED.
func (h *LeadHandler) Verify(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	if err := h.leadSvc.VerifyCode(leadID, req.Code); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// Get returns the lead with consumer contact details masked until the
// business has paid to unlock.
func (h *LeadHandler) Get(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	lead, err := h.leadSvc.Get(leadID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leadView(lead))
}

// Unlock is the business paying to reveal consumer contact details.
func (h *LeadHandler) Unlock(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.leadSvc.Unlock(c.Request.Context(), leadID, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OnTheWay marks the business en route and issues the confirmation PIN.
func (h *LeadHandler) OnTheWay(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	pin, err := h.leadSvc.MarkOnTheWay(leadID, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	// the PIN goes to the consumer, never back to the business
	c.JSON(http.StatusOK, gin.H{
		"status":         "ON_THE_WAY",
		"pin_expires_at": pin.ExpiresAt,
	})
}

// ConfirmPin submits the consumer's PIN read back by the business on site.
func (h *LeadHandler) ConfirmPin(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Pin string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin required"})
		return
	}
	if err := h.leadSvc.ConfirmPin(leadID, middleware.GetUserID(c), req.Pin); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "CONFIRMED"})
}

// Dispute opens a dispute against a paid lead.
func (h *LeadHandler) Dispute(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}
	dispute, err := h.disputeSvc.Open(leadID, middleware.GetUserID(c), req.Reason, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":     dispute.ID,
		"status": dispute.Status,
	})
}

// leadView masks consumer fields until the business has paid.
func leadView(lead *models.Lead) gin.H {
	name, phone, email := lead.ConsumerName, lead.ConsumerPhone, lead.ConsumerEmail
	if !lead.IsUnlocked() {
		name = maskName(name)
		phone = maskPhone(phone)
		email = maskEmail(email)
	}
	return gin.H{
		"id":               lead.ID,
		"business_id":      lead.BusinessID,
		"referrer_id":      lead.ReferrerID,
		"referral_link_id": lead.ReferralLinkID,
		"consumer_name":    name,
		"consumer_phone":   phone,
		"consumer_email":   email,
		"consumer_suburb":  lead.ConsumerSuburb,
		"job_description":  lead.JobDescription,
		"lead_urgency":     lead.LeadUrgency,
		"status":           lead.Status,
		"unlock_fee_cents": lead.UnlockFeeCents,
		"created_at":       lead.CreatedAt,
		"expires_at":       lead.ExpiresAt,
	}
}

func maskPhone(phone string) string {
	if len(phone) < 6 {
		return "****"
	}
	return phone[:4] + "****" + phone[len(phone)-2:]
}

func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 2 {
		return "***"
	}
	return email[:2] + "***@" + email[at+1:]
}

func maskName(name string) string {
	first, _, _ := strings.Cut(name, " ")
	return first + " ***"
}

// pathID parses the numeric :id path parameter, writing the 400 itself.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
