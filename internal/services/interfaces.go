package services

import (
	"context"
	"time"

	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type RegisterTeacherRequest = validator.TeacherRegisterRequest
type ApplyTeacherRequest = validator.TeacherApplyRequest
type PasswordResetRequest = validator.PasswordResetRequest
type ModerationRequest = validator.ModerationRequest

// RequestMeta carries the client attributes audit entries are stamped with.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// CallerIdentity is the resolved identity of an enhanced-application caller.
type CallerIdentity struct {
	// SubjectID from the out-of-band header.
	SubjectID string
	// BearerToken as presented; empty when absent.
	BearerToken string
}

type RegisterTeacherResponse struct {
	UserID                string `json:"user_id"`
	ApplicationID         uint   `json:"application_id"`
	DisplayName           string `json:"display_name"`
	EmailVerificationNeed bool   `json:"email_verification_needed"`
	SigninURL             string `json:"signin_url"`
}

type ApplyTeacherResponse struct {
	UserID        string                   `json:"user_id"`
	ApplicationID uint                     `json:"application_id"`
	Status        models.ApplicationStatus `json:"status"`
}

type ApplicationResponse struct {
	*models.TeacherProfile
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
}

type ApplicationListResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Total        int64                  `json:"total"`
	Page         int                    `json:"page"`
	Size         int                    `json:"size"`
}

type ApplicationListFilters struct {
	Status    *models.ApplicationStatus
	Subject   *string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

type AuditListFilters struct {
	EventType *models.AuditEventType
	SubjectID *string
	Success   *bool
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type AuditListResponse struct {
	Entries []*models.AuditLog `json:"entries"`
	Total   int64              `json:"total"`
	Page    int                `json:"page"`
	Size    int                `json:"size"`
}

// ===== SERVICE INTERFACES =====

// AuditService appends structured events to the audit trail. Recording is
// fire-and-forget: failures never propagate to the caller.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, filters AuditListFilters) (*AuditListResponse, error)
}

// AuditEntry is the caller-facing shape of one audit event.
type AuditEntry struct {
	EventType AuditEventType
	Action    string
	SubjectID *string
	Meta      RequestMeta
	Success   bool
	Error     error
	Metadata  map[string]interface{}
}

type AuditEventType = models.AuditEventType

// RegistrationService owns the basic teacher registration path.
type RegistrationService interface {
	RegisterTeacher(ctx context.Context, req *RegisterTeacherRequest, meta RequestMeta) (*RegisterTeacherResponse, error)
}

// ApplicationService owns the enhanced rich-profile application path.
type ApplicationService interface {
	SubmitApplication(ctx context.Context, caller CallerIdentity, req *ApplyTeacherRequest, meta RequestMeta) (*ApplyTeacherResponse, error)
}

// ModerationService owns the admin review surface.
type ModerationService interface {
	ListApplications(ctx context.Context, filters ApplicationListFilters) (*ApplicationListResponse, error)
	GetApplication(ctx context.Context, id uint) (*ApplicationResponse, error)
	ApproveApplication(ctx context.Context, id uint, reviewerID string, meta RequestMeta) error
	RejectApplication(ctx context.Context, id uint, reviewerID string, reason string, meta RequestMeta) error
}

// PasswordResetService starts provider-side password reset flows.
type PasswordResetService interface {
	RequestReset(ctx context.Context, req *PasswordResetRequest, meta RequestMeta) error
}

// ExportService renders admin data views as downloadable workbooks.
type ExportService interface {
	ExportApplications(ctx context.Context, filters ApplicationListFilters) ([]byte, string, error)
}

// ServiceManager wires the services behind one lifecycle handle.
type ServiceManager interface {
	Registration() RegistrationService
	Application() ApplicationService
	Moderation() ModerationService
	PasswordReset() PasswordResetService
	Export() ExportService
	Audit() AuditService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// toProfileFilters converts the service-level list filters to repository filters.
func toProfileFilters(f ApplicationListFilters) repositories.ProfileFilters {
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return repositories.ProfileFilters{
		Status:    f.Status,
		Subject:   f.Subject,
		DateFrom:  f.DateFrom,
		DateTo:    f.DateTo,
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    f.SortBy,
		SortOrder: f.SortOrder,
	}
}
