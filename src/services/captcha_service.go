package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const captchaVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// CaptchaService verifies captcha tokens against the Turnstile siteverify
// endpoint. When no secret is configured the service accepts every token,
// which keeps local development working without a captcha widget.
type CaptchaService struct {
	secret  string
	client  *http.Client
	baseURL string
}

// NewCaptchaService creates a new captcha service
func NewCaptchaService(secret string) *CaptchaService {
	return &CaptchaService{
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: captchaVerifyURL,
	}
}

type captchaVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks a captcha token. remoteIP may be empty.
func (s *CaptchaService) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if s.secret == "" {
		return true, nil
	}
	if token == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", s.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer resp.Body.Close()

	var result captchaVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode captcha response: %w", err)
	}

	if !result.Success {
		log.Warn().Strs("error_codes", result.ErrorCodes).Msg("Captcha verification rejected")
	}
	return result.Success, nil
}
