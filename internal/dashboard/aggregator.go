package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/dashboardstats"
	"clinicalforge/contributor-portal/contributor-portal-backend/internal/submissions"
)

const statsCacheKey = "dashboard_stats"

// SubmissionSource is the slice of the storage gateway the aggregator needs.
type SubmissionSource interface {
	ListRecent(ctx context.Context, limit int64) ([]submissions.Submission, error)
}

// The stats types are defined in internal/dashboardstats (a leaf package, so
// internal/export can use them without an import cycle) and aliased here to
// keep the dashboard API unchanged.

// DiseaseCount is one entry of the top-N disease ranking.
type DiseaseCount = dashboardstats.DiseaseCount

// MonthBucket counts submissions for one YYYY-MM month key.
type MonthBucket = dashboardstats.MonthBucket

// UserActivity is a per-contributor rollup.
type UserActivity = dashboardstats.UserActivity

// SystemHealth is a snapshot of the aggregator's view of the backend.
type SystemHealth = dashboardstats.SystemHealth

// DashboardStats is the aggregated, filtered summary view over submissions.
type DashboardStats = dashboardstats.DashboardStats

// AggregatorConfig bounds the aggregation window and rankings.
type AggregatorConfig struct {
	WindowSize     int64         `json:"window_size"`
	RecentWindow   time.Duration `json:"recent_window"`
	TopDiseases    int           `json:"top_diseases"`
	MonthlyBuckets int           `json:"monthly_buckets"`
	CacheTTL       time.Duration `json:"cache_ttl"`
}

// DefaultAggregatorConfig returns the defaults used by the portal dashboards.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		WindowSize:     1000,
		RecentWindow:   7 * 24 * time.Hour,
		TopDiseases:    5,
		MonthlyBuckets: 6,
		CacheTTL:       5 * time.Minute,
	}
}

// Aggregator turns a bulk set of submissions into dashboard summaries.
// Reads never propagate errors past this boundary: any failure resolves to
// zero stats with is_connected false so dashboards render instead of crash.
type Aggregator struct {
	source SubmissionSource
	cache  *StatsCache
	logger *zap.Logger
	config AggregatorConfig
	now    func() time.Time
}

// NewAggregator creates a dashboard aggregator.
func NewAggregator(source SubmissionSource, logger *zap.Logger, config AggregatorConfig) *Aggregator {
	return &Aggregator{
		source: source,
		cache:  NewStatsCache(config.CacheTTL),
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// GetDashboardStats returns the cached stats when fresh, recomputing
// otherwise. It never returns an error.
func (a *Aggregator) GetDashboardStats(ctx context.Context) *DashboardStats {
	if cached, ok := a.cache.Get(statsCacheKey); ok {
		return cached
	}
	return a.Refresh(ctx)
}

// Refresh recomputes the stats, bypassing and then repopulating the cache.
// Failed computations are not cached.
func (a *Aggregator) Refresh(ctx context.Context) *DashboardStats {
	window, err := a.source.ListRecent(ctx, a.config.WindowSize)
	if err != nil {
		a.logger.Warn("Dashboard aggregation read failed, returning empty stats", zap.Error(err))
		return a.emptyStats()
	}

	stats := a.compute(window)
	a.cache.Set(statsCacheKey, stats)
	return stats
}

// Invalidate drops the cached stats so the next read recomputes.
func (a *Aggregator) Invalidate() {
	a.cache.Delete(statsCacheKey)
}

// CacheStats exposes cache effectiveness for the health endpoint.
func (a *Aggregator) CacheStats() CacheStats {
	return a.cache.Stats()
}

// Stop releases the cache cleanup loop.
func (a *Aggregator) Stop() {
	a.cache.Stop()
}

func (a *Aggregator) emptyStats() *DashboardStats {
	return &DashboardStats{
		TopDiseases:          []DiseaseCount{},
		MonthlyContributions: []MonthBucket{},
		UserActivity:         []UserActivity{},
		SystemHealth: SystemHealth{
			IsConnected: false,
			CacheSize:   a.cache.Size(),
			LastUpdate:  a.now(),
		},
	}
}

func (a *Aggregator) compute(window []submissions.Submission) *DashboardStats {
	now := a.now()

	// Placeholder submissions never reach the dashboards. The stored flag
	// covers documents stamped at build time, the heuristic covers the rest.
	kept := make([]submissions.Submission, 0, len(window))
	for _, s := range window {
		if submissions.LooksSynthetic(&s) {
			continue
		}
		kept = append(kept, s)
	}

	stats := &DashboardStats{
		TotalForms: len(kept),
		SystemHealth: SystemHealth{
			IsConnected: true,
			CacheSize:   a.cache.Size(),
			LastUpdate:  now,
		},
	}

	recentCutoff := now.Add(-a.config.RecentWindow)
	for _, s := range kept {
		if s.SubmittedAt.After(recentCutoff) {
			stats.RecentSubmissions++
		}
		stats.TotalDataPoints += countDataPoints(&s)
	}

	stats.TopDiseases = a.rankDiseases(kept)
	stats.MonthlyContributions = a.bucketMonths(kept)
	stats.UserActivity, stats.TotalContributors = a.rollupUsers(kept)
	return stats
}

// rankDiseases groups by disease display name and keeps the top N by count.
// Ties keep first-seen window order, which is newest-first store order.
func (a *Aggregator) rankDiseases(window []submissions.Submission) []DiseaseCount {
	counts := make(map[string]int)
	var order []string
	for _, s := range window {
		name := diseaseDisplayName(&s)
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	ranking := make([]DiseaseCount, 0, len(order))
	for _, name := range order {
		ranking = append(ranking, DiseaseCount{DiseaseName: name, Count: counts[name]})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})
	if len(ranking) > a.config.TopDiseases {
		ranking = ranking[:a.config.TopDiseases]
	}
	return ranking
}

// bucketMonths counts submissions per YYYY-MM, sorted ascending by key, and
// keeps only the most recent N buckets present.
func (a *Aggregator) bucketMonths(window []submissions.Submission) []MonthBucket {
	counts := make(map[string]int)
	for _, s := range window {
		counts[s.SubmittedAt.Format("2006-01")]++
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > a.config.MonthlyBuckets {
		keys = keys[len(keys)-a.config.MonthlyBuckets:]
	}

	buckets := make([]MonthBucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, MonthBucket{Month: key, Count: counts[key]})
	}
	return buckets
}

// rollupUsers groups by collaborator, tracking count and latest activity.
// The returned slice is capped for display; the second value is the true
// distinct-contributor count.
func (a *Aggregator) rollupUsers(window []submissions.Submission) ([]UserActivity, int) {
	byUser := make(map[string]*UserActivity)
	var order []string
	for _, s := range window {
		id := s.CollaboratorID
		entry, ok := byUser[id]
		if !ok {
			entry = &UserActivity{
				CollaboratorID: id,
				DisplayName:    displayName(&s),
			}
			byUser[id] = entry
			order = append(order, id)
		}
		entry.SubmissionCount++
		if s.SubmittedAt.After(entry.LastActivity) {
			entry.LastActivity = s.SubmittedAt
		}
	}

	activity := make([]UserActivity, 0, len(order))
	for _, id := range order {
		activity = append(activity, *byUser[id])
	}
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].SubmissionCount > activity[j].SubmissionCount
	})
	total := len(activity)
	if len(activity) > a.config.TopDiseases {
		activity = activity[:a.config.TopDiseases]
	}
	return activity, total
}

func diseaseDisplayName(s *submissions.Submission) string {
	if o := s.Payload.DiseaseOverview; o != nil {
		if o.DiseaseName != "" {
			return o.DiseaseName
		}
		return o.CommonName
	}
	return ""
}

// displayName resolves a human-readable contributor name: explicit physician
// name, then creator metadata, then an email-style collaborator id, then a
// stable placeholder derived from the id.
func displayName(s *submissions.Submission) string {
	if c := s.Payload.PhysicianConsent; c != nil && c.PhysicianName != "" {
		return c.PhysicianName
	}
	for _, candidate := range []string{s.Metadata.CreatedBy, s.Metadata.LastModifiedBy, s.CollaboratorID} {
		if at := strings.Index(candidate, "@"); at > 0 {
			return candidate[:at]
		}
	}
	if s.CollaboratorID != "" {
		id := s.CollaboratorID
		if len(id) > 6 {
			id = id[:6]
		}
		return "Physician " + id
	}
	return "Anonymous Physician"
}

// countDataPoints is a coarse proxy for amount of data: the number of filled
// top-level fields of the overview and assessment sub-objects.
func countDataPoints(s *submissions.Submission) int {
	count := 0
	if o := s.Payload.DiseaseOverview; o != nil {
		for _, field := range []string{
			o.DiseaseName, o.CommonName, o.ICD10Code, o.DiseaseType,
			o.Description, o.TypicalOnsetAge, o.GeneticRiskFactor, o.Region,
		} {
			if field != "" {
				count++
			}
		}
	}
	if a := s.Payload.OverallAssessment; a != nil {
		for _, field := range []string{
			string(a.ClinicalRelevance), a.ImplementationStatus, a.AdditionalNotes,
		} {
			if field != "" {
				count++
			}
		}
		if a.ClinicianExperienceYears > 0 {
			count++
		}
	}
	return count
}
