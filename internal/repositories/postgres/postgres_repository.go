package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/learnity/registration-service/internal/repositories"
)

// postgresRepository aggregates the gorm-backed sub-repositories plus the
// external identity gateway behind the Repository interface.
type postgresRepository struct {
	db *gorm.DB

	userRepo    repositories.UserRepository
	profileRepo repositories.TeacherProfileRepository
	auditRepo   repositories.AuditLogRepository
	identity    repositories.IdentityRepository
}

func NewRepository(db *gorm.DB, identity repositories.IdentityRepository) repositories.Repository {
	return &postgresRepository{
		db:          db,
		userRepo:    NewUserRepository(db),
		profileRepo: NewTeacherProfileRepository(db),
		auditRepo:   NewAuditLogRepository(db),
		identity:    identity,
	}
}

func (r *postgresRepository) User() repositories.UserRepository {
	return r.userRepo
}

func (r *postgresRepository) TeacherProfile() repositories.TeacherProfileRepository {
	return r.profileRepo
}

func (r *postgresRepository) AuditLog() repositories.AuditLogRepository {
	return r.auditRepo
}

func (r *postgresRepository) Identity() repositories.IdentityRepository {
	return r.identity
}

// WithTransaction runs fn against a Repository whose local sub-repositories
// are bound to one transaction. The identity gateway is passed through as-is
// since the provider sits outside our database.
func (r *postgresRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &postgresRepository{
			db:          tx,
			userRepo:    NewUserRepository(tx),
			profileRepo: NewTeacherProfileRepository(tx),
			auditRepo:   NewAuditLogRepository(tx),
			identity:    r.identity,
		}
		return fn(txRepo)
	})
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *postgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

// ===== MANAGER =====

type repositoryManager struct {
	db         *gorm.DB
	identity   repositories.IdentityRepository
	repository repositories.Repository
}

func NewRepositoryManager(db *gorm.DB, identity repositories.IdentityRepository) repositories.RepositoryManager {
	return &repositoryManager{
		db:       db,
		identity: identity,
	}
}

func (m *repositoryManager) Initialize() error {
	if m.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	m.repository = NewRepository(m.db, m.identity)
	return nil
}

func (m *repositoryManager) GetRepository() repositories.Repository {
	return m.repository
}

func (m *repositoryManager) HealthCheck(ctx context.Context) error {
	if m.repository == nil {
		return fmt.Errorf("repository not initialized")
	}
	return m.repository.Ping(ctx)
}

func (m *repositoryManager) Shutdown(ctx context.Context) error {
	if m.repository == nil {
		return nil
	}
	return m.repository.Close()
}
