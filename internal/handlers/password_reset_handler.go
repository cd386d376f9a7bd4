package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnity/registration-service/internal/services"
	"github.com/learnity/registration-service/internal/utils"
)

// PasswordResetHandler serves password reset requests
type PasswordResetHandler struct {
	BaseHandler
	passwordResetService services.PasswordResetService
}

func NewPasswordResetHandler(passwordResetService services.PasswordResetService, logger utils.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{
		BaseHandler:          NewBaseHandler(logger),
		passwordResetService: passwordResetService,
	}
}

// RequestReset handles POST /api/auth/password-reset. The response is the
// same whether or not the email has an account.
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var req services.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Code:    CodeValidationError,
			Details: err.Error(),
		})
		return
	}

	if err := h.passwordResetService.RequestReset(c.Request.Context(), &req, requestMeta(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "If the address has an account, reset instructions are on the way",
	})
}
