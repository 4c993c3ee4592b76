package handlers

import (
	"errors"
	"net/http"

	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-gonic/gin"
)

// PasswordHandler exposes the email reset code flow
type PasswordHandler struct {
	passwordService *services.PasswordService
}

// NewPasswordHandler creates a new password handler
func NewPasswordHandler(passwordService *services.PasswordService) *PasswordHandler {
	return &PasswordHandler{passwordService: passwordService}
}

// ForgotPasswordRequest represents the request body for requesting a code
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyResetCodeRequest represents the request body for verifying a code
type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest represents the request body for completing a reset
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// HandleForgotPassword issues a reset code. The response is identical
// whether or not the account exists.
func (ph *PasswordHandler) HandleForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := ph.passwordService.RequestReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "if the account exists, a reset code was sent"})
}

// HandleVerifyResetCode checks a reset code without burning it
func (ph *PasswordHandler) HandleVerifyResetCode(c *gin.Context) {
	var req VerifyResetCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := ph.passwordService.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
		case errors.Is(err, services.ErrResetCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset code"})
		case errors.Is(err, services.ErrResetCodeExpired):
			c.JSON(http.StatusGone, gin.H{"error": "reset code expired, request a new one"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// HandleResetPassword completes the reset with a verified code
func (ph *PasswordHandler) HandleResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := ph.passwordService.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email, code and new password are required"})
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters with a letter and a digit"})
		case errors.Is(err, services.ErrResetCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset code"})
		case errors.Is(err, services.ErrResetCodeExpired):
			c.JSON(http.StatusGone, gin.H{"error": "reset code expired, request a new one"})
		case errors.Is(err, services.ErrResetNotVerified):
			c.JSON(http.StatusBadRequest, gin.H{"error": "verify the reset code first"})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password reset"})
}
