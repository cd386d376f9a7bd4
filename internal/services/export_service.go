package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
)

const exportPageSize = 500

type exportService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewExportService(repo repositories.Repository, logger utils.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportApplications renders the filtered application list as an xlsx
// workbook. Returns the file bytes and a suggested filename.
func (s *exportService) ExportApplications(ctx context.Context, filters ApplicationListFilters) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Applications"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Application ID", "Subject ID", "Applicant", "Email", "Status",
		"Experience Years", "Hourly Rate", "Submitted At", "Reviewed By", "Reviewed At", "Rejection Reason",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	repoFilters := toProfileFilters(filters)
	repoFilters.Limit = exportPageSize
	repoFilters.Offset = 0

	row := 2
	for {
		profiles, _, err := s.repo.TeacherProfile().List(ctx, repoFilters)
		if err != nil {
			return nil, "", err
		}
		if len(profiles) == 0 {
			break
		}

		for _, profile := range profiles {
			if err := s.writeRow(f, sheet, row, profile); err != nil {
				return nil, "", err
			}
			row++
		}

		if len(profiles) < exportPageSize {
			break
		}
		repoFilters.Offset += exportPageSize
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("teacher-applications-%s.xlsx", time.Now().Format("20060102-150405"))
	return buf.Bytes(), filename, nil
}

func (s *exportService) writeRow(f *excelize.File, sheet string, row int, profile *models.TeacherProfile) error {
	values := []interface{}{
		profile.ID,
		profile.UserID,
		profile.User.DisplayName(),
		profile.User.Email,
		string(profile.Status),
		derefInt(profile.ExperienceYears),
		derefFloat(profile.HourlyRate),
		profile.CreatedAt.Format(time.RFC3339),
		derefString(profile.ReviewedBy),
		formatTimePtr(profile.ReviewedAt),
		derefString(profile.RejectionReason),
	}

	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell: %w", err)
		}
	}
	return nil
}

func derefInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
