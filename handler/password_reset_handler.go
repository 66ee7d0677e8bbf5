package handler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

const resetTokenTTL = 30 * time.Minute

// UserFinder is the read/write slice of the user repository the reset flow
// needs.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, username, hashedPassword string) (int64, error)
}

// PasswordResetHandler implements the forgot/reset password flow. The
// reset token is the username and an expiry sealed with the credential
// codec, so no token state is persisted.
type PasswordResetHandler struct {
	users  UserFinder
	mailer *services.Mailer
}

func NewPasswordResetHandler(users UserFinder, mailer *services.Mailer) *PasswordResetHandler {
	return &PasswordResetHandler{users: users, mailer: mailer}
}

type forgotPasswordRequest struct {
	Username string `json:"username" binding:"required"`
}

// ForgotPassword serves POST /api/auth/forgot-password.
func (h *PasswordResetHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "username is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.FindByUsername(ctx, req.Username)
	if err != nil {
		log.Printf("reset: user lookup failed for %s: %v", req.Username, err)
		utils.InternalError(c, "Failed to process reset request")
		return
	}
	if user == nil || user.Email == "" {
		utils.NotFound(c, "No account with a registered email was found")
		return
	}

	expiry := time.Now().Add(resetTokenTTL).Unix()
	token, err := services.Encrypt(fmt.Sprintf("%s|%d", user.Username, expiry))
	if err != nil {
		log.Printf("reset: failed to seal token for %s: %v", user.Username, err)
		utils.InternalError(c, "Failed to process reset request")
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s",
		utils.GetEnvAsString("PORTAL_BASE_URL", "http://localhost:3000"), token)

	if h.mailer == nil {
		utils.InternalError(c, "Mail delivery is not configured")
		return
	}
	if err := h.mailer.SendPasswordReset(user.Email, user.Name, link); err != nil {
		log.Printf("reset: %v", err)
		utils.InternalError(c, "Failed to send reset email")
		return
	}

	utils.Success(c, gin.H{"message": "Password reset email sent"})
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,password"`
}

// ResetPassword serves POST /api/auth/reset-password.
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "token and newPassword are required")
		return
	}

	sealed, err := services.Decrypt(req.Token)
	if err != nil {
		utils.Unauthorized(c, "Invalid or expired reset token")
		return
	}

	parts := strings.SplitN(sealed, "|", 2)
	if len(parts) != 2 {
		utils.Unauthorized(c, "Invalid or expired reset token")
		return
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		utils.Unauthorized(c, "Invalid or expired reset token")
		return
	}
	username := parts[0]

	hash, err := services.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("reset: failed to hash new password for %s: %v", username, err)
		utils.InternalError(c, "Failed to reset password")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	modified, err := h.users.UpdatePassword(ctx, username, hash)
	if err != nil {
		log.Printf("reset: password update failed for %s: %v", username, err)
		utils.InternalError(c, "Failed to reset password")
		return
	}
	if modified == 0 {
		utils.NotFound(c, "User not found")
		return
	}

	utils.Success(c, gin.H{"message": "Password has been reset"})
}
