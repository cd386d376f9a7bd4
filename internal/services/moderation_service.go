package services

import (
	"context"

	"github.com/learnity/registration-service/internal/events"
	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
)

type moderationService struct {
	repo      repositories.Repository
	audit     AuditService
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewModerationService(
	repo repositories.Repository,
	audit AuditService,
	publisher events.EventPublisher,
	logger utils.Logger,
) ModerationService {
	return &moderationService{
		repo:      repo,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *moderationService) ListApplications(ctx context.Context, filters ApplicationListFilters) (*ApplicationListResponse, error) {
	repoFilters := toProfileFilters(filters)

	profiles, total, err := s.repo.TeacherProfile().List(ctx, repoFilters)
	if err != nil {
		return nil, err
	}

	responses := make([]*ApplicationResponse, 0, len(profiles))
	for _, profile := range profiles {
		responses = append(responses, toApplicationResponse(profile))
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}

	return &ApplicationListResponse{
		Applications: responses,
		Total:        total,
		Page:         page,
		Size:         repoFilters.Limit,
	}, nil
}

func (s *moderationService) GetApplication(ctx context.Context, id uint) (*ApplicationResponse, error) {
	profile, err := s.repo.TeacherProfile().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return toApplicationResponse(profile), nil
}

// ApproveApplication promotes the applicant to teacher. The status flip and
// the role change commit together or not at all.
func (s *moderationService) ApproveApplication(ctx context.Context, id uint, reviewerID string, meta RequestMeta) error {
	return s.moderate(ctx, id, models.ApplicationApproved, reviewerID, nil, meta)
}

// RejectApplication marks the application rejected with a mandatory reason.
func (s *moderationService) RejectApplication(ctx context.Context, id uint, reviewerID string, reason string, meta RequestMeta) error {
	if reason == "" {
		return ValidationErrors{{Field: "reason", Message: "is required", Rule: "required"}}
	}
	return s.moderate(ctx, id, models.ApplicationRejected, reviewerID, &reason, meta)
}

func (s *moderationService) moderate(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID string, reason *string, meta RequestMeta) error {
	var subjectID string

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		profile, err := tx.TeacherProfile().GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return ErrApplicationNotFound
			}
			return err
		}
		if profile.Status != models.ApplicationPending {
			return ErrAlreadyModerated
		}
		subjectID = profile.UserID

		if err := tx.TeacherProfile().UpdateStatus(ctx, id, status, reviewerID, reason); err != nil {
			return err
		}

		role := models.RoleTeacher
		if status == models.ApplicationRejected {
			role = models.RoleRejectedTeacher
		}
		return tx.User().UpdateRole(ctx, subjectID, role)
	})
	if err != nil {
		return err
	}

	eventType := models.AuditApplicationApproved
	if status == models.ApplicationRejected {
		eventType = models.AuditApplicationRejected
	}
	s.audit.Record(ctx, AuditEntry{
		EventType: eventType,
		Action:    "moderate_application",
		SubjectID: &subjectID,
		Meta:      meta,
		Success:   true,
		Metadata: map[string]interface{}{
			"application_id": id,
			"reviewer_id":    reviewerID,
		},
	})

	if err := s.publisher.PublishRegistrationEvent(ctx,
		events.NewApplicationModeratedEvent(id, subjectID, status, reviewerID, reason)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish moderation event", "error", err)
	}

	return nil
}

func toApplicationResponse(profile *models.TeacherProfile) *ApplicationResponse {
	resp := &ApplicationResponse{TeacherProfile: profile}
	if profile.User.ID != "" {
		resp.ApplicantName = profile.User.DisplayName()
		resp.ApplicantEmail = profile.User.Email
	}
	return resp
}
