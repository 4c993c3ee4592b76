package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"time"

	"github.com/posthog/posthog-go"
	"github.com/rs/zerolog/log"
)

// HashEmail returns a hex-encoded SHA-256 hash of the email for use as PostHog distinct ID
func HashEmail(email string) string {
	h := sha256.Sum256([]byte(email))
	return fmt.Sprintf("%x", h)
}

// AnalyticsService handles product and security analytics tracking
type AnalyticsService struct {
	client  posthog.Client
	enabled bool
}

type posthogLogger struct{}

func (l posthogLogger) Success(m posthog.APIMessage) {
	log.Debug().Str("type", fmt.Sprintf("%T", m)).Msg("PostHog event delivered")
}

func (l posthogLogger) Failure(m posthog.APIMessage, err error) {
	log.Error().Err(err).Str("type", fmt.Sprintf("%T", m)).Msg("PostHog delivery failed")
}

// AnalyticsConfig holds analytics configuration
type AnalyticsConfig struct {
	PostHogAPIKey string
	PostHogHost   string
	Enabled       bool
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(cfg AnalyticsConfig) (*AnalyticsService, error) {
	if !cfg.Enabled || cfg.PostHogAPIKey == "" {
		return &AnalyticsService{enabled: false}, nil
	}

	client, err := posthog.NewWithConfig(
		cfg.PostHogAPIKey,
		posthog.Config{
			Endpoint:  cfg.PostHogHost,
			Interval:  30 * time.Second,
			BatchSize: 100,
			Callback:  posthogLogger{},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	return &AnalyticsService{
		client:  client,
		enabled: true,
	}, nil
}

// Close flushes pending events and closes client
func (s *AnalyticsService) Close() error {
	if !s.enabled {
		return nil
	}
	return s.client.Close()
}

func getEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "production"
	}
	return env
}

// TrackEvent captures a generic event
func (s *AnalyticsService) TrackEvent(ctx context.Context, distinctID, event string, properties map[string]interface{}) {
	if !s.enabled {
		return
	}

	if properties == nil {
		properties = make(map[string]interface{})
	}
	properties["timestamp"] = time.Now().Unix()
	properties["environment"] = getEnvironment()

	if err := s.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	}); err != nil {
		log.Error().Err(err).Str("event", event).Msg("PostHog enqueue failed")
	}
}

// TrackLoginSucceeded tracks a successful login
func (s *AnalyticsService) TrackLoginSucceeded(ctx context.Context, emailHash string) {
	s.TrackEvent(ctx, "email_"+emailHash, "login_succeeded", nil)
}

// TrackLoginFailed tracks a rejected login attempt with the gate that
// rejected it
func (s *AnalyticsService) TrackLoginFailed(ctx context.Context, emailHash, reason string) {
	s.TrackEvent(ctx, "email_"+emailHash, "login_failed", map[string]interface{}{
		"reason": reason,
	})
}

// TrackAccountAutoLocked tracks the failure counter tripping the lock
func (s *AnalyticsService) TrackAccountAutoLocked(ctx context.Context, emailHash string) {
	s.TrackEvent(ctx, "email_"+emailHash, "account_auto_locked", nil)
}

// TrackAccountAdminLocked tracks an administrative lock being applied
func (s *AnalyticsService) TrackAccountAdminLocked(ctx context.Context, emailHash string, permanent bool) {
	s.TrackEvent(ctx, "email_"+emailHash, "account_admin_locked", map[string]interface{}{
		"permanent": permanent,
	})
}

// TrackPasswordResetRequested tracks a reset code being issued
func (s *AnalyticsService) TrackPasswordResetRequested(ctx context.Context, emailHash string) {
	s.TrackEvent(ctx, "email_"+emailHash, "password_reset_requested", nil)
}

// TrackSignupCompleted tracks a new account registration
func (s *AnalyticsService) TrackSignupCompleted(ctx context.Context, emailHash string) {
	s.TrackEvent(ctx, "email_"+emailHash, "signup_completed", nil)
}
