package handlers

import (
	"errors"
	"net/http"

	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles signup, login and token verification
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
	DeviceID     string `json:"device_id"`
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

// HandleLogin authenticates a user and sets the auth cookie
func (ah *AuthHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := ah.authService.Login(c.Request.Context(), services.LoginInput{
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
		DeviceID:     req.DeviceID,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		var adminLocked *services.AdminLockedError
		var autoLocked *services.AccountLockedError
		var failed *services.FailedLoginError

		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		case errors.Is(err, services.ErrCaptchaFailed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "captcha verification failed"})
		case errors.As(err, &adminLocked):
			c.JSON(http.StatusForbidden, gin.H{
				"error":  "account locked by administrator",
				"reason": adminLocked.Reason,
			})
		case errors.As(err, &autoLocked):
			c.JSON(http.StatusForbidden, gin.H{
				"error":        "account temporarily locked",
				"minutes_left": autoLocked.Minutes,
				"locked":       true,
			})
		case errors.Is(err, services.ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
		case errors.As(err, &failed):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":              "invalid credentials",
				"attempts_remaining": failed.AttemptsRemaining,
				"locked":             failed.JustLocked,
			})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	// Cookie for browser clients; SPA clients can use the bearer token
	c.SetCookie("auth_token", result.Token, 24*3600, "/", "", true, true)

	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

// HandleSignup registers a new account
func (ah *AuthHandler) HandleSignup(c *gin.Context) {
	var req SignupRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := ah.authService.Signup(c.Request.Context(), services.SignupInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters with a letter and a digit"})
		case errors.Is(err, services.ErrCaptchaFailed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "captcha verification failed"})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		}
		return
	}

	c.SetCookie("auth_token", result.Token, 24*3600, "/", "", true, true)

	c.JSON(http.StatusCreated, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

// HandleVerify reports whether the caller's token is valid
func (ah *AuthHandler) HandleVerify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"user_id": c.GetString("user_id"),
		"email":   c.GetString("email"),
		"role":    c.GetString("role"),
	})
}

// HandleLogout clears the auth cookie
func (ah *AuthHandler) HandleLogout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
