package repositories

import (
	"context"
	"time"

	"github.com/learnity/registration-service/internal/models"
)

// ===== FILTERS =====

// ProfileFilters defines filters for teacher application queries
type ProfileFilters struct {
	Status    *models.ApplicationStatus
	Subject   *string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// AuditFilters defines filters for audit log queries
type AuditFilters struct {
	EventType *models.AuditEventType
	SubjectID *string
	Success   *bool
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// ===== LOCAL STORE REPOSITORIES =====

// UserRepository covers the local user rows this service owns.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) error

	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TeacherProfileRepository covers the application rows.
type TeacherProfileRepository interface {
	Create(ctx context.Context, profile *models.TeacherProfile) error
	GetByID(ctx context.Context, id uint) (*models.TeacherProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)

	List(ctx context.Context, filters ProfileFilters) ([]*models.TeacherProfile, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID string, reason *string) error
	CountByStatus(ctx context.Context, status models.ApplicationStatus) (int64, error)
}

// AuditLogRepository is append-only: no update or delete operations exist.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filters AuditFilters) ([]*models.AuditLog, int64, error)
}

// ===== IDENTITY PROVIDER GATEWAY =====

// IdentityClaims is what a verified bearer token yields.
type IdentityClaims struct {
	SubjectID     string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// CreateAccountRequest is the provider-side account creation payload.
type CreateAccountRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.UserRole
}

// CreatedAccount is the provider's answer to a successful account creation.
// SigninURL points the client at the provider's OAuth flow; the provider does
// not mint session tokens out of band.
type CreatedAccount struct {
	SubjectID     string
	EmailVerified bool
	SigninURL     string
}

// IdentityRepository is the gateway to the external identity provider. The
// provider owns account records; this service only reads and creates them.
type IdentityRepository interface {
	VerifyToken(ctx context.Context, token string) (*IdentityClaims, error)
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreatedAccount, error)
	GetByEmail(ctx context.Context, email string) (*IdentityClaims, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// ===== AGGREGATE =====

// Repository aggregates all sub-repositories behind one handle.
type Repository interface {
	User() UserRepository
	TeacherProfile() TeacherProfileRepository
	AuditLog() AuditLogRepository
	Identity() IdentityRepository

	// WithTransaction executes fn against a transaction-bound Repository.
	// The identity gateway is external and never transactional.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns repository lifecycle (connect, health, shutdown).
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
