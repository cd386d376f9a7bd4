package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/learnity/registration-service/internal/cache"
	"github.com/learnity/registration-service/internal/captcha"
	"github.com/learnity/registration-service/internal/events"
	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
	"github.com/learnity/registration-service/internal/validator"
)

type registrationService struct {
	repo      repositories.Repository
	captcha   captcha.Verifier
	limiter   cache.SecurityLimiter
	audit     AuditService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    utils.Logger
}

func NewRegistrationService(
	repo repositories.Repository,
	captchaVerifier captcha.Verifier,
	limiter cache.SecurityLimiter,
	audit AuditService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger utils.Logger,
) RegistrationService {
	return &registrationService{
		repo:      repo,
		captcha:   captchaVerifier,
		limiter:   limiter,
		audit:     audit,
		publisher: publisher,
		validator: v,
		logger:    logger,
	}
}

// RegisterTeacher runs the basic registration path: captcha gate, provider
// account creation, then the local user and application rows in one
// transaction. A provider account left without local rows is reported as a
// sync error; no compensating provider-side rollback is attempted.
func (s *registrationService) RegisterTeacher(ctx context.Context, req *RegisterTeacherRequest, meta RequestMeta) (*RegisterTeacherResponse, error) {
	s.audit.Record(ctx, AuditEntry{
		EventType: models.AuditRegistrationAttempt,
		Action:    "register_teacher",
		Meta:      meta,
		Success:   true,
		Metadata:  map[string]interface{}{"email": req.Email},
	})

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if allowed, err := s.limiter.Allow(ctx, captcha.ActionTeacherRegistration, meta.IPAddress); err != nil {
		s.logger.WarnContext(ctx, "security limiter check failed", "error", err)
	} else if !allowed {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditSuspiciousActivity,
			Action:    "register_teacher",
			Meta:      meta,
			Success:   false,
			Error:     ErrRateLimited,
		})
		return nil, ErrRateLimited
	}

	// Captcha gate: nothing is created before this passes
	ok, err := s.captcha.Verify(ctx, req.CaptchaToken, captcha.ActionTeacherRegistration, meta.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("captcha verification unavailable: %w", err)
	}
	if !ok {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditCaptchaFailed,
			Action:    "register_teacher",
			Meta:      meta,
			Success:   false,
			Error:     ErrCaptchaFailed,
		})
		return nil, ErrCaptchaFailed
	}

	account, err := s.repo.Identity().CreateAccount(ctx, repositories.CreateAccountRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.RolePendingTeacher,
	})
	if err != nil {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditRegistrationFailed,
			Action:    "register_teacher",
			Meta:      meta,
			Success:   false,
			Error:     err,
			Metadata:  map[string]interface{}{"email": req.Email, "stage": "provider"},
		})
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	user := &models.User{
		ID:            account.SubjectID,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Role:          models.RolePendingTeacher,
		EmailVerified: account.EmailVerified,
		IsActive:      true,
	}

	profile := s.buildProfile(account.SubjectID, req)

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().Create(ctx, user); err != nil {
			return err
		}
		return tx.TeacherProfile().Create(ctx, profile)
	})
	if err != nil {
		// Provider account now exists without local rows. Surface the gap
		// loudly; support resolves it manually.
		subjectID := account.SubjectID
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditDatabaseSyncError,
			Action:    "register_teacher",
			SubjectID: &subjectID,
			Meta:      meta,
			Success:   false,
			Error:     err,
			Metadata:  map[string]interface{}{"email": req.Email},
		})
		if repositories.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, ErrDatabaseSync
	}

	subjectID := account.SubjectID
	s.audit.Record(ctx, AuditEntry{
		EventType: models.AuditRegistrationSuccess,
		Action:    "register_teacher",
		SubjectID: &subjectID,
		Meta:      meta,
		Success:   true,
	})
	s.audit.Record(ctx, AuditEntry{
		EventType: models.AuditApplicationSubmitted,
		Action:    "register_teacher",
		SubjectID: &subjectID,
		Meta:      meta,
		Success:   true,
		Metadata:  map[string]interface{}{"application_id": profile.ID},
	})

	if err := s.publisher.PublishRegistrationEvent(ctx,
		events.NewTeacherRegisteredEvent(subjectID, req.Email, req.FirstName, req.LastName)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish registration event", "error", err)
	}

	return &RegisterTeacherResponse{
		UserID:                account.SubjectID,
		ApplicationID:         profile.ID,
		DisplayName:           user.DisplayName(),
		EmailVerificationNeed: !account.EmailVerified,
		SigninURL:             account.SigninURL,
	}, nil
}

func (s *registrationService) buildProfile(userID string, req *RegisterTeacherRequest) *models.TeacherProfile {
	profile := &models.TeacherProfile{
		UserID:    userID,
		Status:    models.ApplicationPending,
		Bio:       &req.Bio,
		Documents: datatypes.JSON([]byte("[]")),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	experience := req.ExperienceYears
	profile.ExperienceYears = &experience
	rate := req.HourlyRate
	profile.HourlyRate = &rate

	if raw, err := json.Marshal(req.Qualifications); err == nil {
		profile.Qualifications = datatypes.JSON(raw)
	}
	if raw, err := json.Marshal(req.Subjects); err == nil {
		profile.Subjects = datatypes.JSON(raw)
	}

	return profile
}
