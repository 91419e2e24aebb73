package handler

import (
	"net/http"

	"traderefer/internal/middleware"
	"traderefer/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferrerHandler struct {
	referrerSvc *service.ReferrerService
	payoutSvc   *service.PayoutService
}

func NewReferrerHandler(referrerSvc *service.ReferrerService, payoutSvc *service.PayoutService) *ReferrerHandler {
	return &ReferrerHandler{referrerSvc: referrerSvc, payoutSvc: payoutSvc}
}

func (h *ReferrerHandler) Dashboard(c *gin.Context) {
	d, err := h.referrerSvc.Dashboard(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *ReferrerHandler) Earnings(c *gin.Context) {
	limit, offset := pagination(c)
	earnings, err := h.referrerSvc.Earnings(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}

// CreateLink mints (or returns) the referrer's code for a business.
func (h *ReferrerHandler) CreateLink(c *gin.Context) {
	var req struct {
		BusinessID uint `json:"business_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id required"})
		return
	}
	link, err := h.referrerSvc.Link(middleware.GetUserID(c), req.BusinessID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *ReferrerHandler) Links(c *gin.Context) {
	links, err := h.referrerSvc.Links(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

func (h *ReferrerHandler) SetGoal(c *gin.Context) {
	var req struct {
		GoalCents int64 `json:"goal_cents" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "goal_cents required"})
		return
	}
	if err := h.referrerSvc.SetMonthlyGoal(middleware.GetUserID(c), req.GoalCents); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal_cents": req.GoalCents})
}

// Withdraw pays out the referrer's full available balance.
func (h *ReferrerHandler) Withdraw(c *gin.Context) {
	var req struct {
		Method      string `json:"method" binding:"required"`
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method and destination required"})
		return
	}
	payout, err := h.payoutSvc.Withdraw(c.Request.Context(), middleware.GetUserID(c), req.Method, req.Destination)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}
