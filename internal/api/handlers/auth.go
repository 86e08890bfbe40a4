package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rouletted/roulette-tracker/internal/auth"
)

const accessTokenCookieName = "rt_access"

func isSecureRequest(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	proto := c.GetHeader("X-Forwarded-Proto")
	return strings.EqualFold(proto, "https")
}

func setAuthCookie(c *gin.Context, jwtManager *auth.JWTManager, token string) {
	secure := isSecureRequest(c)
	maxAge := int(time.Until(jwtManager.GetAccessTokenExpiry()).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookieName, token, maxAge, "/api/v1", "", secure, true)
}

func clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookieName, "", -1, "/api/v1", "", isSecureRequest(c), true)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	db         *sql.DB
	jwtManager *auth.JWTManager
	bcryptCost int
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *sql.DB, jwtManager *auth.JWTManager, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtManager: jwtManager,
		bcryptCost: bcryptCost,
	}
}

func (h *AuthHandler) needsSetup() (bool, error) {
	var count int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// SetupStatus reports whether the initial admin account exists yet
func (h *AuthHandler) SetupStatus(c *gin.Context) {
	needsSetup, err := h.needsSetup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"needs_setup": needsSetup})
}

// SetupInitialAdmin creates the first admin account. Only allowed while
// no users exist.
func (h *AuthHandler) SetupInitialAdmin(c *gin.Context) {
	needsSetup, err := h.needsSetup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !needsSetup {
		c.JSON(http.StatusForbidden, gin.H{"error": "Setup already completed"})
		return
	}

	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	now := time.Now().UTC()
	result, err := h.db.Exec(`
		INSERT INTO users (username, password_hash, is_active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
	`, req.Username, hash, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		return
	}

	userID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user ID"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Admin account created",
		"user": gin.H{
			"id":       userID,
			"username": req.Username,
		},
	})
}

// Login authenticates a user and issues an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var (
		userID       int64
		username     string
		passwordHash string
		isActive     bool
	)
	err := h.db.QueryRow(`
		SELECT id, username, password_hash, is_active FROM users WHERE username = ?
	`, req.Username).Scan(&userID, &username, &passwordHash, &isActive)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !isActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	if err := auth.VerifyPassword(req.Password, passwordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(userID, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	setAuthCookie(c, h.jwtManager, token)

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user": gin.H{
			"id":       userID,
			"username": username,
		},
	})
}

// Logout clears the auth cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	clearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetCurrentUser returns the authenticated user's identity
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	userClaims := claims.(*auth.Claims)
	c.JSON(http.StatusOK, gin.H{
		"id":       userClaims.UserID,
		"username": userClaims.Username,
	})
}
