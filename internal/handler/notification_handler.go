package handler

import (
	"net/http"

	"traderefer/internal/middleware"
	"traderefer/internal/repository"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
}

func NewNotificationHandler(repo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	rows, err := h.repo.ListByUser(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.MarkRead(middleware.GetUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
