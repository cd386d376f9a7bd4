package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnity/registration-service/internal/services"
	"github.com/learnity/registration-service/internal/utils"
)

// RegistrationHandler serves the basic teacher registration path
type RegistrationHandler struct {
	BaseHandler
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService, logger utils.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		BaseHandler:         NewBaseHandler(logger),
		registrationService: registrationService,
	}
}

// RegisterTeacher handles POST /api/auth/register/teacher
func (h *RegistrationHandler) RegisterTeacher(c *gin.Context) {
	var req services.RegisterTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Code:    CodeValidationError,
			Details: err.Error(),
		})
		return
	}

	resp, err := h.registrationService.RegisterTeacher(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Registration submitted",
		Data:    resp,
	})
}
