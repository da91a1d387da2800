package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mpalmer79/dealdesk/config"
	"github.com/mpalmer79/dealdesk/pkg/logger"
)

// Actor roles carried in the capability token
const (
	RoleCustomer = "customer"
	RoleManager  = "manager"
)

// Claims is the capability token every store call is authorized by: the
// kiosk session it belongs to and the role it acts as. Customer tokens
// carry a session id; manager tokens carry a username instead.
type Claims struct {
	SessionID string `json:"session_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func signToken(claims Claims, cfg *config.AuthConfig) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.TokenExpireHours) * time.Hour)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// GenerateCustomerToken issues a token bound to one kiosk session.
func GenerateCustomerToken(sessionID string, cfg *config.AuthConfig) (string, time.Time, error) {
	return signToken(Claims{SessionID: sessionID, Role: RoleCustomer}, cfg)
}

// GenerateManagerToken issues a dashboard token for a named manager.
func GenerateManagerToken(username string, cfg *config.AuthConfig) (string, time.Time, error) {
	return signToken(Claims{Username: username, Role: RoleManager}, cfg)
}

// AuthMiddleware validates the Bearer token and stores the session
// identity and role in the request context.
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("session_id", claims.SessionID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, logger.SessionIDKey, claims.SessionID)
		ctx = context.WithValue(ctx, logger.ActorKey, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireManager rejects any request not carrying a manager token. It
// must run after AuthMiddleware.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != RoleManager {
			c.JSON(http.StatusForbidden, gin.H{"error": "Manager access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSessionID gets the kiosk session id from context
func GetSessionID(c *gin.Context) string {
	if sessionID, exists := c.Get("session_id"); exists {
		return sessionID.(string)
	}
	return ""
}

// GetUsername gets the manager username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get("username"); exists {
		return username.(string)
	}
	return ""
}

// GetRole gets the actor role from context
func GetRole(c *gin.Context) string {
	if role, exists := c.Get("role"); exists {
		return role.(string)
	}
	return ""
}
