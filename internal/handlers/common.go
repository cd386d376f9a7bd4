package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnity/registration-service/internal/services"
	"github.com/learnity/registration-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// Error codes surfaced to clients alongside the HTTP status.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeCaptchaFailed   = "CAPTCHA_VERIFICATION_FAILED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeDatabaseSync    = "DATABASE_SYNC_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogError logs error details with request context
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)
	h.logger.LogError(err, message, fields...)
}

// LogInfo logs informational messages with request context
func (h *BaseHandler) LogInfo(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)
	h.logger.Info(message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
		Code:    code,
	}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// requestMeta captures the client attributes services stamp onto audit rows.
func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// handleServiceError maps service errors onto the HTTP error taxonomy.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Code:    CodeValidationError,
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrCaptchaFailed):
		h.RespondWithError(c, http.StatusBadRequest, CodeCaptchaFailed, "Captcha verification failed", err)
	case errors.Is(err, services.ErrProviderRejected),
		errors.Is(err, services.ErrInvalidDateOfBirth),
		errors.Is(err, services.ErrInvalidHourlyRate):
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationError, err.Error(), err)

	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrSubjectMismatch):
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized", err)

	case errors.Is(err, services.ErrApplicationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, err.Error(), err)

	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, CodeConflict, err.Error(), err)

	case services.IsRateLimited(err):
		h.RespondWithError(c, http.StatusTooManyRequests, CodeRateLimited, "Too many attempts, try again later", err)

	case errors.Is(err, services.ErrDatabaseSync):
		h.RespondWithError(c, http.StatusInternalServerError, CodeDatabaseSync,
			"Your account was created but profile setup failed. Please contact support.", err)

	default:
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternalError, "Internal error", err)
	}
}
