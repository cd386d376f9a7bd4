package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/learnity/registration-service/internal/events"
	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
	"github.com/learnity/registration-service/internal/validator"
)

// MockIdentityToken bypasses provider verification when mock tokens are
// enabled in config. Dev and test flows only.
const MockIdentityToken = "mock-identity-token"

// ApplicationConfig tunes the enhanced application write path.
type ApplicationConfig struct {
	MaxWriteAttempts int
	RetryBaseDelay   time.Duration
	AllowMockToken   bool
}

type applicationService struct {
	repo      repositories.Repository
	audit     AuditService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    utils.Logger
	config    ApplicationConfig
}

func NewApplicationService(
	repo repositories.Repository,
	audit AuditService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger utils.Logger,
	config ApplicationConfig,
) ApplicationService {
	if config.MaxWriteAttempts <= 0 {
		config.MaxWriteAttempts = 3
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 100 * time.Millisecond
	}
	return &applicationService{
		repo:      repo,
		audit:     audit,
		publisher: publisher,
		validator: v,
		logger:    logger,
		config:    config,
	}
}

// SubmitApplication runs the rich-profile path: identity resolution,
// idempotency checks, then the user+profile write inside a transaction with
// bounded retry. Only unique-constraint violations trigger a retry; any
// other failure aborts immediately.
func (s *applicationService) SubmitApplication(ctx context.Context, caller CallerIdentity, req *ApplyTeacherRequest, meta RequestMeta) (*ApplyTeacherResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	subjectID, err := s.resolveSubject(ctx, caller, meta)
	if err != nil {
		return nil, err
	}

	if err := s.checkConflicts(ctx, subjectID, req.Email); err != nil {
		return nil, err
	}

	profile, err := s.buildProfile(subjectID, req)
	if err != nil {
		return nil, err
	}

	if err := s.writeWithRetry(ctx, subjectID, req, profile); err != nil {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditRegistrationFailed,
			Action:    "submit_application",
			SubjectID: &subjectID,
			Meta:      meta,
			Success:   false,
			Error:     err,
		})
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		EventType: models.AuditApplicationSubmitted,
		Action:    "submit_application",
		SubjectID: &subjectID,
		Meta:      meta,
		Success:   true,
		Metadata:  map[string]interface{}{"application_id": profile.ID},
	})

	if err := s.publisher.PublishRegistrationEvent(ctx,
		events.NewApplicationReceivedEvent(profile.ID, subjectID, req.Email, req.Subjects)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish application event", "error", err)
	}

	return &ApplyTeacherResponse{
		UserID:        subjectID,
		ApplicationID: profile.ID,
		Status:        models.ApplicationPending,
	}, nil
}

// resolveSubject settles who the caller is. A bearer token must agree with
// the out-of-band subject header when both are present.
func (s *applicationService) resolveSubject(ctx context.Context, caller CallerIdentity, meta RequestMeta) (string, error) {
	if caller.BearerToken == "" && caller.SubjectID == "" {
		return "", ErrUnauthorized
	}

	if caller.BearerToken == "" {
		return caller.SubjectID, nil
	}

	if s.config.AllowMockToken && caller.BearerToken == MockIdentityToken {
		if caller.SubjectID == "" {
			return "", ErrUnauthorized
		}
		return caller.SubjectID, nil
	}

	claims, err := s.repo.Identity().VerifyToken(ctx, caller.BearerToken)
	if err != nil {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditTokenVerificationFail,
			Action:    "submit_application",
			Meta:      meta,
			Success:   false,
			Error:     err,
		})
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if caller.SubjectID != "" && caller.SubjectID != claims.SubjectID {
		s.audit.Record(ctx, AuditEntry{
			EventType: models.AuditTokenVerificationFail,
			Action:    "submit_application",
			SubjectID: &claims.SubjectID,
			Meta:      meta,
			Success:   false,
			Error:     ErrSubjectMismatch,
		})
		return "", ErrSubjectMismatch
	}

	return claims.SubjectID, nil
}

// checkConflicts enforces one application per user and one account per email
// before the write starts. The unique indexes re-check both under load.
func (s *applicationService) checkConflicts(ctx context.Context, subjectID, email string) error {
	user, err := s.repo.User().GetByID(ctx, subjectID)
	if err != nil && !repositories.IsNotFound(err) {
		return err
	}

	if user != nil {
		exists, err := s.repo.TeacherProfile().ExistsByUserID(ctx, subjectID)
		if err != nil {
			return err
		}
		if exists {
			return ErrApplicationExists
		}
		return nil
	}

	other, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil && !repositories.IsNotFound(err) {
		return err
	}
	if other != nil && other.ID != subjectID {
		return ErrEmailTaken
	}
	return nil
}

// writeWithRetry performs the transactional write. Each attempt re-fetches
// the user by subject id so a concurrently created row is reused instead of
// colliding. Backoff grows linearly with the attempt number.
func (s *applicationService) writeWithRetry(ctx context.Context, subjectID string, req *ApplyTeacherRequest, profile *models.TeacherProfile) error {
	var lastErr error

	for attempt := 1; attempt <= s.config.MaxWriteAttempts; attempt++ {
		profile.ID = 0
		lastErr = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			user, err := tx.User().GetByID(ctx, subjectID)
			if err != nil && !repositories.IsNotFound(err) {
				return err
			}

			if user != nil {
				user.Role = models.RolePendingTeacher
				user.FirstName = req.FirstName
				user.LastName = req.LastName
				if err := tx.User().Update(ctx, user); err != nil {
					return err
				}
			} else {
				user = &models.User{
					ID:        subjectID,
					Email:     req.Email,
					FirstName: req.FirstName,
					LastName:  req.LastName,
					Role:      models.RolePendingTeacher,
					IsActive:  true,
				}
				if err := tx.User().Create(ctx, user); err != nil {
					return err
				}
			}

			return tx.TeacherProfile().Create(ctx, profile)
		})

		if lastErr == nil {
			return nil
		}
		if !repositories.IsUniqueViolation(lastErr) {
			return lastErr
		}
		if attempt == s.config.MaxWriteAttempts {
			break
		}

		s.logger.WarnContext(ctx, "unique violation during application write, retrying",
			"attempt", attempt,
			"constraint", repositories.ConstraintOf(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * s.config.RetryBaseDelay):
		}
	}

	return s.classifyConflict(lastErr)
}

// classifyConflict keys the surviving 409 to the column that collided.
func (s *applicationService) classifyConflict(err error) error {
	constraint := repositories.ConstraintOf(err)
	switch {
	case strings.Contains(constraint, "teacher_profiles"):
		return ErrApplicationExists
	case strings.Contains(constraint, "email"):
		return ErrEmailTaken
	case strings.Contains(constraint, "users"):
		return ErrSubjectTaken
	default:
		return fmt.Errorf("%w: %v", ErrWriteConflict, err)
	}
}

// buildProfile normalizes the optional payload fields: missing arrays become
// empty arrays, numeric strings parse to floats, date strings to dates.
func (s *applicationService) buildProfile(userID string, req *ApplyTeacherRequest) (*models.TeacherProfile, error) {
	profile := &models.TeacherProfile{
		UserID:          userID,
		Status:          models.ApplicationPending,
		Bio:             req.Bio,
		ExperienceYears: req.ExperienceYears,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	profile.Qualifications = marshalOrEmpty(req.Qualifications)
	profile.Subjects = marshalOrEmpty(req.Subjects)
	profile.Languages = marshalOrEmpty(req.Languages)
	profile.Documents = marshalOrEmpty(req.Documents)

	if req.Availability != nil {
		if raw, err := json.Marshal(req.Availability); err == nil {
			profile.Availability = datatypes.JSON(raw)
		}
	}

	rate, err := parseHourlyRate(req.HourlyRate)
	if err != nil {
		return nil, err
	}
	profile.HourlyRate = rate

	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateOfBirth
		}
		profile.DateOfBirth = &dob
	}

	return profile, nil
}

// marshalOrEmpty renders v as JSON, substituting an empty array for nil
// slices so the stored document never carries null where a list belongs.
func marshalOrEmpty(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

// parseHourlyRate accepts a JSON number or a numeric string.
func parseHourlyRate(v interface{}) (*float64, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &val, nil
	case int:
		f := float64(val)
		return &f, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, ErrInvalidHourlyRate
		}
		return &f, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, ErrInvalidHourlyRate
		}
		return &f, nil
	default:
		return nil, ErrInvalidHourlyRate
	}
}
