package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/dashboardstats"
)

func sampleStats() *dashboardstats.DashboardStats {
	return &dashboardstats.DashboardStats{
		TotalForms:        12,
		RecentSubmissions: 4,
		TotalContributors: 3,
		TotalDataPoints:   57,
		TopDiseases: []dashboardstats.DiseaseCount{
			{DiseaseName: "Chronic Kidney Disease", Count: 7},
			{DiseaseName: "Asthma", Count: 5},
		},
		MonthlyContributions: []dashboardstats.MonthBucket{
			{Month: "2026-07", Count: 8},
			{Month: "2026-08", Count: 4},
		},
		UserActivity: []dashboardstats.UserActivity{
			{CollaboratorID: "u1", DisplayName: "Dr. Mehta", SubmissionCount: 7,
				LastActivity: time.Date(2026, time.August, 20, 9, 0, 0, 0, time.UTC)},
		},
		SystemHealth: dashboardstats.SystemHealth{IsConnected: true, LastUpdate: time.Now()},
	}
}

func TestWriteDashboardStatsProducesAllSheets(t *testing.T) {
	exporter := NewExcelExporter()
	defer exporter.Close()

	require.NoError(t, exporter.WriteDashboardStats(sampleStats()))

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteTo(&buf))
	require.Greater(t, buf.Len(), 0)

	workbook, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer workbook.Close()

	assert.ElementsMatch(t,
		[]string{"Overview", "Top Diseases", "Monthly Contributions", "Contributors"},
		workbook.GetSheetList())

	total, err := workbook.GetCellValue("Overview", "B2")
	require.NoError(t, err)
	assert.Equal(t, "12", total)

	disease, err := workbook.GetCellValue("Top Diseases", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Chronic Kidney Disease", disease)

	month, err := workbook.GetCellValue("Monthly Contributions", "A3")
	require.NoError(t, err)
	assert.Equal(t, "2026-08", month)

	contributor, err := workbook.GetCellValue("Contributors", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Mehta", contributor)
}
