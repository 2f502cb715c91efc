package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/internal/service"
	"github.com/noah-isme/sma-admission-api/pkg/response"
)

type enrollmentAdmin interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentListItem, *models.Pagination, error)
	Detail(ctx context.Context, tenantID, id string) (*models.EnrollmentDetail, error)
	LinkClass(ctx context.Context, tenantID, id string) (*models.ClassLinkResult, error)
}

type enrollmentExporter interface {
	Export(ctx context.Context, filter models.EnrollmentFilter, format service.ExportFormat) (*service.ExportResult, error)
	Receipt(ctx context.Context, tenantID, id string) (*service.ExportResult, error)
}

// EnrollmentHandler exposes the administrator view of submitted enrollments.
type EnrollmentHandler struct {
	enrollments enrollmentAdmin
	exports     enrollmentExporter
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentAdmin, exports enrollmentExporter) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, exports: exports}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param status query string false "Filter by status"
// @Param year query int false "Filter by year"
// @Param q query string false "Search by enrollment number or student name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := parseEnrollmentFilter(c)
	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Export godoc
// @Summary Export enrollments
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param tenantID path string true "Tenant ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /tenants/{tenantID}/enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportFormatCSV))))
	result, err := h.exports.Export(c.Request.Context(), parseEnrollmentFilter(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, result)
}

// Detail godoc
// @Summary Enrollment detail
// @Tags Enrollments
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollments/{id} [get]
func (h *EnrollmentHandler) Detail(c *gin.Context) {
	detail, err := h.enrollments.Detail(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Receipt godoc
// @Summary Enrollment receipt
// @Tags Enrollments
// @Produce application/pdf
// @Param tenantID path string true "Tenant ID"
// @Param id path string true "Enrollment ID"
// @Success 200 {file} file
// @Router /tenants/{tenantID}/enrollments/{id}/receipt [get]
func (h *EnrollmentHandler) Receipt(c *gin.Context) {
	result, err := h.exports.Receipt(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, result)
}

// LinkClass godoc
// @Summary Reconcile the class link of an enrollment
// @Tags Enrollments
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tenants/{tenantID}/enrollments/{id}/class-link [post]
func (h *EnrollmentHandler) LinkClass(c *gin.Context) {
	result, err := h.enrollments.LinkClass(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}

func parseEnrollmentFilter(c *gin.Context) models.EnrollmentFilter {
	filter := models.EnrollmentFilter{
		TenantID:  tenantID(c),
		Status:    models.EnrollmentStatus(strings.ToLower(c.Query("status"))),
		Search:    strings.TrimSpace(c.Query("q")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}

func sendFile(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
