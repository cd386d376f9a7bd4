package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
)

type auditService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewAuditService(repo repositories.Repository, logger utils.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

// Record appends one audit event. Write failures are logged to diagnostics
// and swallowed; the caller's response is never affected by the audit trail.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	log := &models.AuditLog{
		EventType:         entry.EventType,
		Action:            entry.Action,
		SubjectID:         entry.SubjectID,
		IPAddress:         entry.Meta.IPAddress,
		UserAgent:         entry.Meta.UserAgent,
		DeviceFingerprint: models.DeviceFingerprint(entry.Meta.UserAgent, entry.Meta.IPAddress),
		Success:           entry.Success,
		CreatedAt:         time.Now(),
	}

	if entry.Error != nil {
		msg := entry.Error.Error()
		log.ErrorMessage = &msg
	}

	if len(entry.Metadata) > 0 {
		if raw, err := json.Marshal(entry.Metadata); err == nil {
			log.Metadata = datatypes.JSON(raw)
		}
	}

	// Detach from the request context so a cancelled request cannot abort
	// the append mid-write.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.AuditLog().Append(writeCtx, log); err != nil {
		s.logger.LogError(err, "audit append failed",
			"event_type", entry.EventType,
			"action", entry.Action)
	}
}

func (s *auditService) List(ctx context.Context, filters AuditListFilters) (*AuditListResponse, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	size := filters.PageSize
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	repoFilters := repositories.AuditFilters{
		EventType: filters.EventType,
		SubjectID: filters.SubjectID,
		Success:   filters.Success,
		DateFrom:  filters.DateFrom,
		DateTo:    filters.DateTo,
		Limit:     size,
		Offset:    (page - 1) * size,
	}

	entries, total, err := s.repo.AuditLog().List(ctx, repoFilters)
	if err != nil {
		return nil, err
	}

	return &AuditListResponse{
		Entries: entries,
		Total:   total,
		Page:    page,
		Size:    size,
	}, nil
}
