package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnity/registration-service/internal/config"
	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/services"
	"github.com/learnity/registration-service/internal/utils"
	"github.com/learnity/registration-service/internal/validator"
)

type HandlerManager struct {
	registrationHandler  *RegistrationHandler
	applicationHandler   *ApplicationHandler
	passwordResetHandler *PasswordResetHandler
	moderationHandler    *ModerationHandler
	auditHandler         *AuditHandler
	authMiddleware       *CasdoorAuthMiddleware
	serviceManager       services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	v *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		registrationHandler:  NewRegistrationHandler(serviceManager.Registration(), logger),
		applicationHandler:   NewApplicationHandler(serviceManager.Application(), logger),
		passwordResetHandler: NewPasswordResetHandler(serviceManager.PasswordReset(), logger),
		moderationHandler:    NewModerationHandler(serviceManager.Moderation(), serviceManager.Export(), v, logger),
		auditHandler:         NewAuditHandler(serviceManager.Audit(), logger),
		authMiddleware:       authMiddleware,
		serviceManager:       serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	// Public registration surface
	auth := router.Group("/api/auth")
	{
		auth.POST("/register/teacher", hm.registrationHandler.RegisterTeacher)
		auth.POST("/register/teacher/apply", hm.applicationHandler.SubmitApplication)
		auth.POST("/password-reset", hm.passwordResetHandler.RequestReset)
	}

	// Admin back office
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.GET("/applications", hm.moderationHandler.ListApplications)
			admin.GET("/applications/export", hm.moderationHandler.ExportApplications)
			admin.GET("/applications/:id", hm.moderationHandler.GetApplication)
			admin.POST("/applications/:id/approve", hm.moderationHandler.ApproveApplication)
			admin.POST("/applications/:id/reject", hm.moderationHandler.RejectApplication)

			admin.GET("/audit-logs", hm.auditHandler.ListAuditLogs)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "registration-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
