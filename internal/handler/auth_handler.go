package handler

import (
	"errors"
	"log"
	"net/http"

	"traderefer/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RegisterRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	FullName         string `json:"full_name" binding:"required"`
	Role             string `json:"role" binding:"required,oneof=BUSINESS REFERRER"`
	BusinessName     string `json:"business_name"`
	TradeCategory    string `json:"trade_category"`
	Suburb           string `json:"suburb"`
	ReferralFeeCents int64  `json:"referral_fee_cents"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, access, refresh, err := h.svc.Register(service.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		FullName:         req.FullName,
		Role:             req.Role,
		BusinessName:     req.BusinessName,
		TradeCategory:    req.TradeCategory,
		Suburb:           req.Suburb,
		ReferralFeeCents: req.ReferralFeeCents,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[auth] register failed: role=%s email=%s err=%v", req.Role, req.Email, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, access, refresh, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}
