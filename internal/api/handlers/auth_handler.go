package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"huntmate/backend/internal/auth"
	"huntmate/backend/internal/config"
)

// AuthHandler issues staff JWTs. There is no self-service registration: staff
// share one bcrypt-hashed password from config, and the admin role comes
// solely from the email allow-list.
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email and password are required"})
		return
	}

	if h.cfg.StaffPasswdHash == "" || !auth.CheckPasswordHash(req.Password, h.cfg.StaffPasswdHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	role := auth.RoleStaff
	if h.cfg.IsAdminEmail(email) {
		role = auth.RoleAdmin
	}

	token, err := auth.GenerateJWT(email, role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"role":    role,
	})
}
