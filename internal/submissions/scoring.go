package submissions

import (
	"math"
	"math/rand"
	"strings"
)

// relevancePoints maps categorical ratings to fixed point values.
var relevancePoints = map[RelevanceRating]int{
	RatingExcellent: 100,
	RatingHigh:      100,
	RatingGood:      80,
	RatingMedium:    70,
	RatingFair:      60,
	RatingLow:       50,
	RatingPoor:      40,
}

// PlaceholderScorer supplies the analytics sub-scores (accuracy, consistency,
// evidence) that no real computation exists for yet. The default is
// deterministic; the random implementation exists for demo seeding only and
// must never back production scoring.
type PlaceholderScorer interface {
	Score(metric string) int
}

// FixedPlaceholderScorer returns the same configured value for every metric.
type FixedPlaceholderScorer struct {
	Value int
}

func (s FixedPlaceholderScorer) Score(string) int { return s.Value }

// RandomPlaceholderScorer returns values in [50,100). Demo seeding only.
type RandomPlaceholderScorer struct {
	Rand *rand.Rand
}

func (s RandomPlaceholderScorer) Score(string) int {
	if s.Rand != nil {
		return 50 + s.Rand.Intn(50)
	}
	return 50 + rand.Intn(50)
}

// AnalyticsScores are the placeholder-backed sub-scores reported alongside
// advanced-analytics submissions.
type AnalyticsScores struct {
	AccuracyScore    int `bson:"accuracyScore" json:"accuracy_score"`
	ConsistencyScore int `bson:"consistencyScore" json:"consistency_score"`
	EvidenceScore    int `bson:"evidenceScore" json:"evidence_score"`
}

// Engine computes the derived validation and search-index blocks from a
// payload. Score and Index are pure: same payload, same output, no I/O.
type Engine struct {
	placeholder PlaceholderScorer
}

// NewEngine creates a scoring engine. A nil placeholder falls back to a fixed
// deterministic scorer.
func NewEngine(placeholder PlaceholderScorer) *Engine {
	if placeholder == nil {
		placeholder = FixedPlaceholderScorer{Value: 75}
	}
	return &Engine{placeholder: placeholder}
}

// Score computes the four validation scores for a payload.
func (e *Engine) Score(payload *Payload) ValidationScores {
	scores := ValidationScores{
		MissingSections:    []string{},
		ValidationWarnings: []string{},
		ValidationErrors:   []string{},
	}
	if payload == nil {
		payload = &Payload{}
	}

	// Completeness: share of the fixed section list that is present.
	presentCount := 0
	for _, s := range sections {
		if s.Present(payload) {
			presentCount++
		} else {
			scores.MissingSections = append(scores.MissingSections, s.Key)
		}
	}
	scores.CompletenessScore = roundPct(presentCount, len(sections))

	// Data quality: share of checkable records flagged sufficient, resolved
	// or implemented.
	flagged, total := 0, 0
	for _, med := range payload.Medications {
		total++
		if med.Sufficient {
			flagged++
		}
	}
	for _, flag := range payload.RedFlags {
		total++
		if flag.Sufficient {
			flagged++
		}
	}
	for _, mis := range payload.Misdiagnoses {
		total++
		if mis.Resolved {
			flagged++
		}
	}
	for _, req := range payload.MonitoringRequirements {
		total++
		if req.Implemented {
			flagged++
		}
	}
	if total > 0 {
		scores.DataQualityScore = roundPct(flagged, total)
	} else {
		scores.ValidationWarnings = append(scores.ValidationWarnings,
			"no checkable records supplied; data quality defaults to 0")
	}

	// Clinical relevance: average of mapped categorical ratings.
	ratedSum, ratedCount := 0, 0
	for _, subtype := range payload.DiseaseSubtypes {
		if points, ok := relevancePoints[subtype.ClinicalImpact]; ok {
			ratedSum += points
			ratedCount++
		}
	}
	if a := payload.OverallAssessment; a != nil {
		if points, ok := relevancePoints[a.ClinicalRelevance]; ok {
			ratedSum += points
			ratedCount++
		}
	}
	if ratedCount > 0 {
		scores.ClinicalRelevanceScore = int(math.Round(float64(ratedSum) / float64(ratedCount)))
	}

	if payload.PhysicianConsent == nil || !payload.PhysicianConsent.Consented {
		scores.ValidationWarnings = append(scores.ValidationWarnings,
			"physician consent not recorded")
	}
	if scores.CompletenessScore < 50 {
		scores.ValidationWarnings = append(scores.ValidationWarnings,
			"fewer than half of the expected sections are filled in")
	}

	scores.OverallScore = int(math.Round(
		float64(scores.CompletenessScore+scores.DataQualityScore+scores.ClinicalRelevanceScore) / 3))

	return scores
}

// Analytics returns the placeholder-backed sub-scores.
func (e *Engine) Analytics() AnalyticsScores {
	return AnalyticsScores{
		AccuracyScore:    e.placeholder.Score("accuracy"),
		ConsistencyScore: e.placeholder.Score("consistency"),
		EvidenceScore:    e.placeholder.Score("evidence"),
	}
}

// Index builds the search index for a payload: lowercase whitespace tokens of
// every free-text field, deduplicated, plus enum-like fields partitioned into
// tags, categories and regions. No stemming, no stopword removal.
func (e *Engine) Index(payload *Payload) SearchIndex {
	index := SearchIndex{
		Keywords:   []string{},
		Tags:       []string{},
		Categories: []string{},
		Regions:    []string{},
	}
	if payload == nil {
		return index
	}

	keywords := newTokenSet()
	tags := newTokenSet()
	categories := newTokenSet()
	regions := newTokenSet()

	if o := payload.DiseaseOverview; o != nil {
		keywords.addTokens(o.DiseaseName, o.CommonName, o.Description, o.TypicalOnsetAge, o.GeneticRiskFactor)
		categories.addValue(o.DiseaseType)
		categories.addValue(o.ICD10Code)
		regions.addValue(o.Region)
	}
	for _, subtype := range payload.DiseaseSubtypes {
		keywords.addTokens(subtype.Name, subtype.DiagnosticCriteria, subtype.Notes)
		tags.addValue(string(subtype.ClinicalImpact))
	}
	for _, stage := range payload.ClinicalStages {
		keywords.addTokens(stage.Name, stage.Description)
	}
	for _, symptoms := range payload.SymptomsByStage {
		keywords.addTokens(symptoms.MajorSymptoms...)
		keywords.addTokens(symptoms.EarlySymptoms...)
	}
	for _, med := range payload.Medications {
		keywords.addTokens(med.Name, med.DrugClass)
		tags.addValue(med.LineOfTreatment)
	}
	for _, flag := range payload.RedFlags {
		keywords.addTokens(flag.Symptom)
	}
	for _, lab := range payload.LabValues {
		keywords.addTokens(lab.TestName)
	}
	for _, comorbidity := range payload.Comorbidities {
		keywords.addTokens(comorbidity.Condition)
		tags.addValue(comorbidity.Frequency)
	}
	for _, contra := range payload.Contraindications {
		keywords.addTokens(contra.Drug, contra.Condition)
		tags.addValue(contra.Severity)
	}
	for _, mis := range payload.Misdiagnoses {
		keywords.addTokens(mis.CommonMisdiagnosis, mis.KeyDifferentiators)
	}
	keywords.addTokens(payload.Notes)
	if a := payload.OverallAssessment; a != nil {
		keywords.addTokens(a.AdditionalNotes)
		tags.addValue(string(a.ClinicalRelevance))
		index.ImplementationStatus = a.ImplementationStatus
	}

	index.Keywords = keywords.values()
	index.Tags = tags.values()
	index.Categories = categories.values()
	index.Regions = regions.values()
	return index
}

func roundPct(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// tokenSet deduplicates lowercase tokens while keeping first-seen order.
type tokenSet struct {
	seen  map[string]bool
	order []string
}

func newTokenSet() *tokenSet {
	return &tokenSet{seen: make(map[string]bool)}
}

func (s *tokenSet) add(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || s.seen[token] {
		return
	}
	s.seen[token] = true
	s.order = append(s.order, token)
}

// addTokens splits each text on whitespace and adds every token.
func (s *tokenSet) addTokens(texts ...string) {
	for _, text := range texts {
		for _, token := range strings.Fields(strings.ToLower(text)) {
			s.add(token)
		}
	}
}

// addValue adds an enum-like field as a single token without splitting.
func (s *tokenSet) addValue(value string) {
	s.add(value)
}

func (s *tokenSet) values() []string {
	if s.order == nil {
		return []string{}
	}
	return s.order
}
