package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/internal/service"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type enrollmentAdminMock struct {
	items      []models.EnrollmentListItem
	detail     *models.EnrollmentDetail
	link       *models.ClassLinkResult
	err        error
	lastFilter models.EnrollmentFilter
	lastID     string
}

func (m *enrollmentAdminMock) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentListItem, *models.Pagination, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.items)}, nil
}

func (m *enrollmentAdminMock) Detail(ctx context.Context, tenantID, id string) (*models.EnrollmentDetail, error) {
	m.lastID = id
	return m.detail, m.err
}

func (m *enrollmentAdminMock) LinkClass(ctx context.Context, tenantID, id string) (*models.ClassLinkResult, error) {
	m.lastID = id
	return m.link, m.err
}

type exporterMock struct {
	result     *service.ExportResult
	err        error
	lastFormat service.ExportFormat
}

func (m *exporterMock) Export(ctx context.Context, filter models.EnrollmentFilter, format service.ExportFormat) (*service.ExportResult, error) {
	m.lastFormat = format
	return m.result, m.err
}

func (m *exporterMock) Receipt(ctx context.Context, tenantID, id string) (*service.ExportResult, error) {
	return m.result, m.err
}

func TestEnrollmentHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	admin := &enrollmentAdminMock{items: []models.EnrollmentListItem{{Enrollment: models.Enrollment{ID: "e1", Number: "2025-00001"}}}}
	h := NewEnrollmentHandler(admin, &exporterMock{})

	c, w := newGinContext(http.MethodGet, "/tenants/T1/enrollments?status=PENDING&year=2025&q=2025-0&page=2&limit=5&sort=number&order=asc", nil)
	c.Params = gin.Params{{Key: "tenantID", Value: "T1"}}
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EnrollmentFilter{
		TenantID: "T1", Status: models.EnrollmentStatusPending, Year: 2025, Search: "2025-0",
		Page: 2, PageSize: 5, SortBy: "number", SortOrder: "asc",
	}, admin.lastFilter)
	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestEnrollmentHandlerDetailNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEnrollmentHandler(&enrollmentAdminMock{err: appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")}, &exporterMock{})

	c, w := newGinContext(http.MethodGet, "/tenants/T1/enrollments/missing", nil)
	c.Params = gin.Params{{Key: "tenantID", Value: "T1"}, {Key: "id", Value: "missing"}}
	h.Detail(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentHandlerExportSendsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exporterMock{result: &service.ExportResult{Filename: "enrollments_T1.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}}
	h := NewEnrollmentHandler(&enrollmentAdminMock{}, exporter)

	c, w := newGinContext(http.MethodGet, "/tenants/T1/enrollments/export?format=PDF", nil)
	c.Params = gin.Params{{Key: "tenantID", Value: "T1"}}
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatPDF, exporter.lastFormat)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="enrollments_T1.pdf"`)
}

func TestEnrollmentHandlerLinkClassStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	admin := &enrollmentAdminMock{link: &models.ClassLinkResult{Created: true}}
	h := NewEnrollmentHandler(admin, &exporterMock{})

	c, w := newGinContext(http.MethodPost, "/tenants/T1/enrollments/e1/class-link", nil)
	c.Params = gin.Params{{Key: "tenantID", Value: "T1"}, {Key: "id", Value: "e1"}}
	h.LinkClass(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	admin.link = &models.ClassLinkResult{Created: false}
	c, w = newGinContext(http.MethodPost, "/tenants/T1/enrollments/e1/class-link", nil)
	c.Params = gin.Params{{Key: "tenantID", Value: "T1"}, {Key: "id", Value: "e1"}}
	h.LinkClass(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e1", admin.lastID)
}
