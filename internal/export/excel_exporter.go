package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/dashboardstats"
)

// ExcelExporter writes dashboard stats as a multi-sheet XLSX workbook.
type ExcelExporter struct {
	file *excelize.File
}

// NewExcelExporter creates an empty workbook.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{file: excelize.NewFile()}
}

// WriteDashboardStats populates the workbook from one stats snapshot.
func (e *ExcelExporter) WriteDashboardStats(stats *dashboardstats.DashboardStats) error {
	if err := e.writeOverviewSheet(stats); err != nil {
		return err
	}
	if err := e.writeRankingSheet("Top Diseases", []string{"Disease", "Submissions"},
		func(set func(row int, values ...interface{})) {
			for i, entry := range stats.TopDiseases {
				set(i+2, entry.DiseaseName, entry.Count)
			}
		}); err != nil {
		return err
	}
	if err := e.writeRankingSheet("Monthly Contributions", []string{"Month", "Submissions"},
		func(set func(row int, values ...interface{})) {
			for i, bucket := range stats.MonthlyContributions {
				set(i+2, bucket.Month, bucket.Count)
			}
		}); err != nil {
		return err
	}
	return e.writeRankingSheet("Contributors", []string{"Contributor", "Submissions", "Last Activity"},
		func(set func(row int, values ...interface{})) {
			for i, user := range stats.UserActivity {
				set(i+2, user.DisplayName, user.SubmissionCount,
					user.LastActivity.Format("2006-01-02 15:04"))
			}
		})
}

// WriteTo serializes the workbook.
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// Close releases the workbook resources.
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

func (e *ExcelExporter) writeOverviewSheet(stats *dashboardstats.DashboardStats) error {
	const sheet = "Overview"
	defaultSheet := e.file.GetSheetName(0)
	if err := e.file.SetSheetName(defaultSheet, sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total submissions", stats.TotalForms},
		{"Submissions (last 7 days)", stats.RecentSubmissions},
		{"Distinct contributors", stats.TotalContributors},
		{"Data points", stats.TotalDataPoints},
		{"Connected", stats.SystemHealth.IsConnected},
		{"Last update", stats.SystemHealth.LastUpdate.Format("2006-01-02 15:04:05")},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := e.file.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return e.styleHeader(sheet, 2)
}

func (e *ExcelExporter) writeRankingSheet(sheet string, header []string, fill func(set func(row int, values ...interface{}))) error {
	if _, err := e.file.NewSheet(sheet); err != nil {
		return err
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := e.file.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}

	var fillErr error
	fill(func(row int, values ...interface{}) {
		if fillErr != nil {
			return
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		fillErr = e.file.SetSheetRow(sheet, cell, &values)
	})
	if fillErr != nil {
		return fillErr
	}
	return e.styleHeader(sheet, len(header))
}

func (e *ExcelExporter) styleHeader(sheet string, columns int) error {
	style, err := e.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.CoordinatesToCellName(columns, 1)
	if err := e.file.SetCellStyle(sheet, "A1", lastCol, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}
