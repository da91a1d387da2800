package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mpalmer79/dealdesk/config"
	"github.com/mpalmer79/dealdesk/middleware"
	"github.com/mpalmer79/dealdesk/pkg/logger"
)

type SessionHandler struct {
	config *config.Config
}

func NewSessionHandler(cfg *config.Config) *SessionHandler {
	return &SessionHandler{config: cfg}
}

type SessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id,omitempty"`
	ExpiresAt string `json:"expires_at"`
	Role      string `json:"role"`
	Username  string `json:"username,omitempty"`
}

// StartSession bootstraps a kiosk session: a fresh session id and a
// customer token bound to it. The token is the capability every later
// worksheet call carries; nothing is kept server-side per session.
func (h *SessionHandler) StartSession(c *gin.Context) {
	sessionID := uuid.New().String()

	token, expiresAt, err := middleware.GenerateCustomerToken(sessionID, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info(c.Request.Context(), "kiosk session started", "session_id", sessionID)

	c.JSON(http.StatusOK, SessionResponse{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		Role:      middleware.RoleCustomer,
	})
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles manager dashboard login
func (h *SessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	mgr := h.config.FindManager(req.Username)
	if mgr == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	// Simple password check (in production, use bcrypt)
	if mgr.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, expiresAt, err := middleware.GenerateManagerToken(mgr.Username, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		Role:      middleware.RoleManager,
		Username:  mgr.Username,
	})
}

// Me returns the identity carried by the current token
func (h *SessionHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"session_id": middleware.GetSessionID(c),
		"username":   middleware.GetUsername(c),
		"role":       middleware.GetRole(c),
	})
}
