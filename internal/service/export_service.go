package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hakplan/hakplan-api/internal/models"
	appErrors "github.com/hakplan/hakplan-api/pkg/errors"
	"github.com/hakplan/hakplan-api/pkg/export"
)

// Export formats for grade history downloads.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

const exportPageSize = 100

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders grade history as downloadable files.
type ExportService struct {
	grades ComputedGradeRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(grades ComputedGradeRepository, logger *zap.Logger) *ExportService {
	return &ExportService{
		grades: grades,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// GradeHistory renders a student's snapshot history in the requested format.
func (s *ExportService) GradeHistory(ctx context.Context, filter models.ComputedGradeFilter, format string) (*ExportFile, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	filter.Page = 1
	filter.PageSize = exportPageSize
	var grades []models.ComputedGrade
	for {
		batch, total, err := s.grades.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade history")
		}
		grades = append(grades, batch...)
		if len(grades) >= total || len(batch) == 0 {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{
		Headers: []string{"Subject", "Exam Type", "Final Score", "Computed At"},
		Rows:    make([]map[string]string, 0, len(grades)),
	}
	for _, grade := range grades {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Subject":     grade.SubjectName,
			"Exam Type":   grade.ExamType,
			"Final Score": strconv.FormatFloat(grade.FinalScore, 'f', 2, 64),
			"Computed At": grade.CreatedAt.Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Grade History")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("grade-history-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("grade-history-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	}
}
