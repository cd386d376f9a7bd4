package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnity/registration-service/internal/services"
	"github.com/learnity/registration-service/internal/utils"
	"github.com/learnity/registration-service/internal/validator"
)

// ModerationHandler serves the admin application review surface
type ModerationHandler struct {
	BaseHandler
	moderationService services.ModerationService
	exportService     services.ExportService
	validator         *validator.Validator
}

func NewModerationHandler(
	moderationService services.ModerationService,
	exportService services.ExportService,
	v *validator.Validator,
	logger utils.Logger,
) *ModerationHandler {
	return &ModerationHandler{
		BaseHandler:       NewBaseHandler(logger),
		moderationService: moderationService,
		exportService:     exportService,
		validator:         v,
	}
}

// ListApplications handles GET /api/v1/admin/applications
func (h *ModerationHandler) ListApplications(c *gin.Context) {
	filters, ok := h.bindListFilters(c)
	if !ok {
		return
	}

	resp, err := h.moderationService.ListApplications(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetApplication handles GET /api/v1/admin/applications/:id
func (h *ModerationHandler) GetApplication(c *gin.Context) {
	id, ok := h.applicationID(c)
	if !ok {
		return
	}

	resp, err := h.moderationService.GetApplication(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ApproveApplication handles POST /api/v1/admin/applications/:id/approve
func (h *ModerationHandler) ApproveApplication(c *gin.Context) {
	id, ok := h.applicationID(c)
	if !ok {
		return
	}

	reviewerID := c.GetString("user_id")
	if err := h.moderationService.ApproveApplication(c.Request.Context(), id, reviewerID, requestMeta(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Application approved"})
}

// RejectApplication handles POST /api/v1/admin/applications/:id/reject
func (h *ModerationHandler) RejectApplication(c *gin.Context) {
	id, ok := h.applicationID(c)
	if !ok {
		return
	}

	var req services.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Code:    CodeValidationError,
			Details: err.Error(),
		})
		return
	}

	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}

	reviewerID := c.GetString("user_id")
	if err := h.moderationService.RejectApplication(c.Request.Context(), id, reviewerID, reason, requestMeta(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Application rejected"})
}

// ExportApplications handles GET /api/v1/admin/applications/export
func (h *ModerationHandler) ExportApplications(c *gin.Context) {
	filters, ok := h.bindListFilters(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportApplications(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *ModerationHandler) applicationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid application id",
			Code:    CodeValidationError,
		})
		return 0, false
	}
	return uint(id), true
}

func (h *ModerationHandler) bindListFilters(c *gin.Context) (services.ApplicationListFilters, bool) {
	var query validator.ApplicationListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Code:    CodeValidationError,
			Details: err.Error(),
		})
		return services.ApplicationListFilters{}, false
	}
	if err := h.validator.Validate(&query); err != nil {
		h.handleServiceError(c, err)
		return services.ApplicationListFilters{}, false
	}

	filters := services.ApplicationListFilters{
		Status:    query.Status,
		Subject:   query.Subject,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}

	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.DateTo = &t
		}
	}

	return filters, true
}
