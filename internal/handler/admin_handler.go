package handler

import (
	"net/http"

	"traderefer/internal/middleware"
	"traderefer/internal/repository"
	"traderefer/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	disputeSvc   *service.DisputeService
	lifecycleSvc *service.LifecycleService
	txRepo       *repository.TransactionRepository
}

func NewAdminHandler(disputeSvc *service.DisputeService, lifecycleSvc *service.LifecycleService, txRepo *repository.TransactionRepository) *AdminHandler {
	return &AdminHandler{disputeSvc: disputeSvc, lifecycleSvc: lifecycleSvc, txRepo: txRepo}
}

// Disputes lists the open dispute queue.
func (h *AdminHandler) Disputes(c *gin.Context) {
	limit, offset := pagination(c)
	disputes, err := h.disputeSvc.ListOpen(limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// ResolveDispute applies the admin ruling on a disputed lead.
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Outcome    string `json:"outcome" binding:"required,oneof=confirm reject"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outcome must be confirm or reject"})
		return
	}
	if err := h.disputeSvc.Resolve(leadID, middleware.GetUserID(c), req.Outcome, req.AdminNotes); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true, "outcome": req.Outcome})
}

// LeadTransactions shows a lead's money trail, used when reviewing disputes.
func (h *AdminHandler) LeadTransactions(c *gin.Context) {
	leadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.txRepo.ListByLead(leadID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows})
}

// RunLifecycle triggers the four sweeps and reports rows touched. Wired to
// cron in production; callable manually for backlog catch-up.
func (h *AdminHandler) RunLifecycle(c *gin.Context) {
	counts := h.lifecycleSvc.RunAll()
	c.JSON(http.StatusOK, counts)
}
