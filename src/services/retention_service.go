package services

import (
	"context"
	"time"

	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/rs/zerolog/log"
)

// RetentionService trims old audit logs and expired password reset codes
// on a daily schedule. Edit sessions are deliberately excluded: they are
// swept on read by the session arbiter.
type RetentionService struct {
	audits   repositories.AuditRepository
	resets   repositories.PasswordResetRepository
	maxAge   time.Duration
	enabled  bool
	interval time.Duration
	done     chan bool
	now      func() time.Time
}

// NewRetentionService creates a new retention service. maxAge bounds how
// long audit logs are kept.
func NewRetentionService(audits repositories.AuditRepository, resets repositories.PasswordResetRepository, maxAge time.Duration, enabled bool) *RetentionService {
	return &RetentionService{
		audits:   audits,
		resets:   resets,
		maxAge:   maxAge,
		enabled:  enabled,
		interval: 24 * time.Hour, // Run daily
		done:     make(chan bool),
		now:      time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *RetentionService) WithClock(now func() time.Time) *RetentionService {
	s.now = now
	return s
}

// Start starts the retention loop
func (s *RetentionService) Start(ctx context.Context) {
	if !s.enabled {
		log.Info().Msg("Retention service is disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Retention service stopped")
				return
			case <-s.done:
				log.Info().Msg("Retention service stopped")
				return
			case <-ticker.C:
				s.Run(ctx)
			}
		}
	}()

	log.Info().Dur("interval", s.interval).Msg("Retention service started")
}

// Stop stops the retention loop
func (s *RetentionService) Stop() {
	s.done <- true
}

// Run performs one retention pass.
func (s *RetentionService) Run(ctx context.Context) {
	now := s.now()

	removed, err := s.audits.DeleteOlderThan(ctx, now.Add(-s.maxAge))
	if err != nil {
		log.Error().Err(err).Msg("Audit log retention failed")
	} else if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Trimmed old audit logs")
	}

	removed, err = s.resets.DeleteExpired(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Reset code retention failed")
	} else if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Deleted expired reset codes")
	}
}
