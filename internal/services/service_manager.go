package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/learnity/registration-service/internal/cache"
	"github.com/learnity/registration-service/internal/captcha"
	"github.com/learnity/registration-service/internal/events"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
	"github.com/learnity/registration-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Application ApplicationConfig
}

// serviceManager implements ServiceManager
type serviceManager struct {
	repo      repositories.Repository
	captcha   captcha.Verifier
	limiter   cache.SecurityLimiter
	publisher events.EventPublisher
	validator *validator.Validator
	logger    utils.Logger
	config    ServiceManagerConfig

	auditService         AuditService
	registrationService  RegistrationService
	applicationService   ApplicationService
	moderationService    ModerationService
	passwordResetService PasswordResetService
	exportService        ExportService

	mu       sync.Mutex
	shutDown bool
}

// NewServiceManager builds all services against shared dependencies.
func NewServiceManager(
	repo repositories.Repository,
	captchaVerifier captcha.Verifier,
	limiter cache.SecurityLimiter,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger utils.Logger,
	config ServiceManagerConfig,
) ServiceManager {
	audit := NewAuditService(repo, logger)

	return &serviceManager{
		repo:      repo,
		captcha:   captchaVerifier,
		limiter:   limiter,
		publisher: publisher,
		validator: v,
		logger:    logger,
		config:    config,

		auditService:         audit,
		registrationService:  NewRegistrationService(repo, captchaVerifier, limiter, audit, publisher, v, logger),
		applicationService:   NewApplicationService(repo, audit, publisher, v, logger, config.Application),
		moderationService:    NewModerationService(repo, audit, publisher, logger),
		passwordResetService: NewPasswordResetService(repo, captchaVerifier, limiter, audit, publisher, v, logger),
		exportService:        NewExportService(repo, logger),
	}
}

func (m *serviceManager) Registration() RegistrationService {
	return m.registrationService
}

func (m *serviceManager) Application() ApplicationService {
	return m.applicationService
}

func (m *serviceManager) Moderation() ModerationService {
	return m.moderationService
}

func (m *serviceManager) PasswordReset() PasswordResetService {
	return m.passwordResetService
}

func (m *serviceManager) Export() ExportService {
	return m.exportService
}

func (m *serviceManager) Audit() AuditService {
	return m.auditService
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutDown {
		return fmt.Errorf("service manager is shut down")
	}
	return m.repo.Ping(ctx)
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutDown {
		return nil
	}
	m.shutDown = true

	if err := m.publisher.Close(); err != nil {
		m.logger.LogError(err, "failed to close event publisher")
	}
	return nil
}
