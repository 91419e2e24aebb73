package handler

import (
	"net/http"
	"strconv"

	"traderefer/internal/middleware"
	"traderefer/internal/service"

	"github.com/gin-gonic/gin"
)

type BusinessHandler struct {
	businessSvc *service.BusinessService
	leadSvc     *service.LeadService
}

func NewBusinessHandler(businessSvc *service.BusinessService, leadSvc *service.LeadService) *BusinessHandler {
	return &BusinessHandler{businessSvc: businessSvc, leadSvc: leadSvc}
}

// Me returns the authenticated business's profile and wallet balance.
func (h *BusinessHandler) Me(c *gin.Context) {
	business, err := h.businessSvc.GetByUserID(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

// GetBySlug is the public business profile used on referral landing pages.
func (h *BusinessHandler) GetBySlug(c *gin.Context) {
	business, err := h.businessSvc.GetBySlug(c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                 business.ID,
		"business_name":      business.BusinessName,
		"slug":               business.Slug,
		"trade_category":     business.TradeCategory,
		"suburb":             business.Suburb,
		"referral_fee_cents": business.ReferralFeeCents,
	})
}

// Patch applies a partial profile update. Only allow-listed fields pass.
func (h *BusinessHandler) Patch(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	business, err := h.businessSvc.Patch(middleware.GetUserID(c), fields)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

// Leads lists the business's leads, newest first.
func (h *BusinessHandler) Leads(c *gin.Context) {
	limit, offset := pagination(c)
	leads, err := h.leadSvc.ListForBusiness(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]gin.H, 0, len(leads))
	for i := range leads {
		views = append(views, leadView(&leads[i]))
	}
	c.JSON(http.StatusOK, gin.H{"leads": views})
}

// TopUp starts a wallet top-up payment and returns the client secret.
func (h *BusinessHandler) TopUp(c *gin.Context) {
	var req struct {
		AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents required"})
		return
	}
	intent, err := h.businessSvc.CreateTopUpIntent(c.Request.Context(), middleware.GetUserID(c), req.AmountCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"intent_id":     intent.ID,
		"client_secret": intent.ClientSecret,
	})
}

// Transactions lists wallet history.
func (h *BusinessHandler) Transactions(c *gin.Context) {
	limit, offset := pagination(c)
	rows, err := h.businessSvc.WalletTransactions(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows})
}

// Payments lists the audit log of unlock and payout transactions.
func (h *BusinessHandler) Payments(c *gin.Context) {
	limit, offset := pagination(c)
	rows, err := h.businessSvc.Payments(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": rows})
}

// pagination parses limit/offset query parameters with sane bounds.
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
