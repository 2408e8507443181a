// Package dashboardstats holds the dashboard summary types. They live in a
// leaf package so internal/export can depend on them without importing
// internal/dashboard (which itself imports internal/export).
package dashboardstats

import "time"

// DiseaseCount is one entry of the top-N disease ranking.
type DiseaseCount struct {
	DiseaseName string `json:"disease_name"`
	Count       int    `json:"count"`
}

// MonthBucket counts submissions for one YYYY-MM month key.
type MonthBucket struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// UserActivity is a per-contributor rollup.
type UserActivity struct {
	CollaboratorID  string    `json:"collaborator_id"`
	DisplayName     string    `json:"display_name"`
	SubmissionCount int       `json:"submission_count"`
	LastActivity    time.Time `json:"last_activity"`
}

// SystemHealth is a snapshot of the aggregator's view of the backend.
type SystemHealth struct {
	IsConnected bool      `json:"is_connected"`
	CacheSize   int       `json:"cache_size"`
	LastUpdate  time.Time `json:"last_update"`
}

// DashboardStats is the aggregated, filtered summary view over submissions.
type DashboardStats struct {
	TotalForms           int            `json:"total_forms"`
	RecentSubmissions    int            `json:"recent_submissions"`
	TopDiseases          []DiseaseCount `json:"top_diseases"`
	MonthlyContributions []MonthBucket  `json:"monthly_contributions"`
	UserActivity         []UserActivity `json:"user_activity"`
	TotalContributors    int            `json:"total_contributors"`
	TotalDataPoints      int            `json:"total_data_points"`
	SystemHealth         SystemHealth   `json:"system_health"`
}
