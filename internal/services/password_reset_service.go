package services

import (
	"context"
	"fmt"

	"github.com/learnity/registration-service/internal/cache"
	"github.com/learnity/registration-service/internal/captcha"
	"github.com/learnity/registration-service/internal/events"
	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
	"github.com/learnity/registration-service/internal/validator"
)

type passwordResetService struct {
	repo      repositories.Repository
	captcha   captcha.Verifier
	limiter   cache.SecurityLimiter
	audit     AuditService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    utils.Logger
}

func NewPasswordResetService(
	repo repositories.Repository,
	captchaVerifier captcha.Verifier,
	limiter cache.SecurityLimiter,
	audit AuditService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger utils.Logger,
) PasswordResetService {
	return &passwordResetService{
		repo:      repo,
		captcha:   captchaVerifier,
		limiter:   limiter,
		audit:     audit,
		publisher: publisher,
		validator: v,
		logger:    logger,
	}
}

// RequestReset starts a provider-side reset flow. The response does not
// reveal whether the email has an account; unknown addresses succeed
// silently.
func (s *passwordResetService) RequestReset(ctx context.Context, req *PasswordResetRequest, meta RequestMeta) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if allowed, err := s.limiter.Allow(ctx, captcha.ActionPasswordReset, meta.IPAddress); err != nil {
		s.logger.WarnContext(ctx, "security limiter check failed", "error", err)
	} else if !allowed {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditSuspiciousActivity,
			Action:    "password_reset",
			Meta:      meta,
			Success:   false,
			Error:     ErrRateLimited,
		})
		return ErrRateLimited
	}

	ok, err := s.captcha.Verify(ctx, req.CaptchaToken, captcha.ActionPasswordReset, meta.IPAddress)
	if err != nil {
		return fmt.Errorf("captcha verification unavailable: %w", err)
	}
	if !ok {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditCaptchaFailed,
			Action:    "password_reset",
			Meta:      meta,
			Success:   false,
			Error:     ErrCaptchaFailed,
		})
		return ErrCaptchaFailed
	}

	exists, err := s.repo.Identity().ExistsByEmail(ctx, req.Email)
	if err != nil {
		s.logger.WarnContext(ctx, "provider lookup failed during password reset", "error", err)
		exists = false
	}

	s.audit.Record(ctx, AuditEntry{
		EventType: models.AuditPasswordResetRequest,
		Action:    "password_reset",
		Meta:      meta,
		Success:   true,
		Metadata:  map[string]interface{}{"known_account": exists},
	})

	if !exists {
		return nil
	}

	if err := s.publisher.PublishRegistrationEvent(ctx,
		events.NewPasswordResetRequestedEvent(req.Email)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish password reset event", "error", err)
	}

	return nil
}
