package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnity/registration-service/internal/services"
	"github.com/learnity/registration-service/internal/utils"
)

// SubjectIDHeader carries the out-of-band subject id on the enhanced
// application path.
const SubjectIDHeader = "X-Identity-Uid"

// ApplicationHandler serves the enhanced rich-profile application path
type ApplicationHandler struct {
	BaseHandler
	applicationService services.ApplicationService
}

func NewApplicationHandler(applicationService services.ApplicationService, logger utils.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        NewBaseHandler(logger),
		applicationService: applicationService,
	}
}

// SubmitApplication handles POST /api/auth/register/teacher/apply
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req services.ApplyTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Code:    CodeValidationError,
			Details: err.Error(),
		})
		return
	}

	caller := services.CallerIdentity{
		SubjectID: c.GetHeader(SubjectIDHeader),
	}
	if token, ok := bearerToken(c); ok {
		caller.BearerToken = token
	}

	resp, err := h.applicationService.SubmitApplication(c.Request.Context(), caller, &req, requestMeta(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Application submitted",
		Data:    resp,
	})
}
