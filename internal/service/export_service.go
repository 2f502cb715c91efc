package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/internal/models"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
	"github.com/noah-isme/sma-admission-api/pkg/export"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderReceipt(r export.Receipt) ([]byte, error)
}

type enrollmentDetailer interface {
	Detail(ctx context.Context, tenantID, id string) (*models.EnrollmentDetail, error)
}

type signatureLoader interface {
	Load(ref string) ([]byte, error)
}

// ExportResult is a rendered document ready to be served.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders enrollment listings and receipts.
type ExportService struct {
	enrollments enrollmentRepository
	details     enrollmentDetailer
	signatures  signatureLoader
	csv         csvRenderer
	pdf         pdfRenderer
	clock       Clock
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(enrollments enrollmentRepository, details enrollmentDetailer, signatures signatureLoader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		enrollments: enrollments,
		details:     details,
		signatures:  signatures,
		csv:         csv,
		pdf:         pdf,
		clock:       time.Now,
		logger:      logger,
	}
}

var enrollmentExportHeaders = []string{"number", "year", "student", "class_section", "status", "class_linked", "submitted_at"}

// Export renders every enrollment matching the filter.
func (s *ExportService) Export(ctx context.Context, filter models.EnrollmentFilter, format ExportFormat) (*ExportResult, error) {
	filter.Page = 1
	filter.PageSize = -1
	items, _, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	dataset := export.Dataset{Headers: enrollmentExportHeaders}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"number":        item.Number,
			"year":          strconv.Itoa(item.Year),
			"student":       item.StudentName,
			"class_section": models.StringValue(item.ClassSectionName),
			"status":        string(item.Status),
			"class_linked":  strconv.FormatBool(item.ClassLinked),
			"submitted_at":  item.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Enrollments")
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	name := fmt.Sprintf("enrollments_%s_%s.%s", sanitizeFilename(filter.TenantID), s.clock().UTC().Format("20060102_150405"), format)
	return &ExportResult{Filename: name, ContentType: contentType, Data: payload}, nil
}

// Receipt renders the PDF confirmation of one enrollment, embedding the signature.
func (s *ExportService) Receipt(ctx context.Context, tenantID, id string) (*ExportResult, error) {
	detail, err := s.details.Detail(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	receipt := export.Receipt{
		Title:    "Enrollment receipt",
		Subtitle: "Enrollment " + detail.Number,
		Sections: receiptSections(detail),
		Footer:   "Status: " + string(detail.Status) + ". Submitted " + detail.SubmittedAt.UTC().Format("2006-01-02 15:04 MST") + ".",
	}
	if detail.SignatureRef != nil && s.signatures != nil {
		png, err := s.signatures.Load(*detail.SignatureRef)
		if err != nil {
			s.logger.Warn("receipt rendered without signature", zap.String("enrollment_id", id), zap.Error(err))
		} else {
			receipt.SignaturePNG = png
		}
	}

	payload, err := s.pdf.RenderReceipt(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(detail.Number)),
		ContentType: "application/pdf",
		Data:        payload,
	}, nil
}

func receiptSections(d *models.EnrollmentDetail) []export.ReceiptSection {
	enrollment := export.ReceiptSection{Heading: "Enrollment", Rows: [][2]string{
		{"Number", d.Number},
		{"Year", strconv.Itoa(d.Year)},
	}}
	if d.ClassSection != nil {
		enrollment.Rows = append(enrollment.Rows, [2]string{"Class section", d.ClassSection.Name})
	}
	sections := []export.ReceiptSection{enrollment}

	if d.Student != nil {
		student := export.ReceiptSection{Heading: "Student", Rows: [][2]string{{"Name", d.Student.FullName}}}
		if d.Student.BirthDate != nil {
			student.Rows = append(student.Rows, [2]string{"Birth date", d.Student.BirthDate.Format("2006-01-02")})
		}
		sections = append(sections, student)
	}

	for _, g := range d.Guardians {
		heading := "Primary guardian"
		if g.Role == models.GuardianRoleSecondary {
			heading = "Secondary guardian"
		}
		sections = append(sections, export.ReceiptSection{Heading: heading, Rows: nonEmptyRows(
			[2]string{"Name", models.StringValue(g.FullName)},
			[2]string{"National ID", models.StringValue(g.NationalID)},
			[2]string{"Phone", models.StringValue(g.Phone)},
			[2]string{"Email", models.StringValue(g.Email)},
		)})
	}

	if fr := d.FinancialResponsible; fr != nil {
		address := strings.Join(nonEmpty(models.StringValue(fr.Street), models.StringValue(fr.Number), models.StringValue(fr.Complement)), ", ")
		locality := strings.Join(nonEmpty(models.StringValue(fr.District), models.StringValue(fr.City), models.StringValue(fr.Region), models.StringValue(fr.PostalCode)), " - ")
		sections = append(sections, export.ReceiptSection{Heading: "Financial responsible", Rows: nonEmptyRows(
			[2]string{"Name", models.StringValue(fr.FullName)},
			[2]string{"National ID", models.StringValue(fr.NationalID)},
			[2]string{"Address", address},
			[2]string{"Locality", locality},
			[2]string{"Phone", models.StringValue(fr.Phone)},
			[2]string{"Email", models.StringValue(fr.Email)},
		)})
	}
	return sections
}

func nonEmptyRows(rows ...[2]string) [][2]string {
	out := make([][2]string, 0, len(rows))
	for _, row := range rows {
		if row[1] != "" {
			out = append(out, row)
		}
	}
	return out
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
