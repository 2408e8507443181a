package submissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullPayload() Payload {
	return Payload{
		DiseaseOverview: &DiseaseOverview{
			DiseaseName: "Chronic Kidney Disease",
			ICD10Code:   "N18",
			DiseaseType: "chronic",
			Description: "Progressive loss of kidney function",
			Region:      "South Asia",
		},
		DiseaseSubtypes: []DiseaseSubtype{
			{Name: "Diabetic nephropathy", ClinicalImpact: RatingHigh},
		},
		ClinicalStages: []ClinicalStage{
			{Name: "Stage 1", Description: "Kidney damage with normal GFR"},
		},
		SymptomsByStage: []StageSymptoms{
			{Stage: "Stage 3", MajorSymptoms: []string{"fatigue", "edema"}},
		},
		Medications: []Medication{
			{Name: "Lisinopril", DrugClass: "ACE inhibitor", Sufficient: true},
		},
		RedFlags: []RedFlag{
			{Symptom: "Anuria", Critical: true, Sufficient: true},
		},
		ProgressionTimeline: []ProgressionPoint{
			{Stage: "Stage 2", AverageDurationMonths: 36},
		},
		LabValues: []LabValue{
			{TestName: "Serum creatinine", ExpectedRange: "0.7-1.3", Units: "mg/dL"},
		},
		Comorbidities: []Comorbidity{
			{Condition: "Hypertension", Frequency: "common"},
		},
		Contraindications: []Contraindication{
			{Drug: "NSAIDs", Severity: "relative"},
		},
		MonitoringRequirements: []MonitoringRequirement{
			{Parameter: "eGFR", Frequency: "quarterly", Implemented: true},
		},
		Misdiagnoses: []Misdiagnosis{
			{CommonMisdiagnosis: "Acute kidney injury", Resolved: true},
		},
		RegionalPractices: &RegionalPractices{
			CareAccessBarriers: "Limited dialysis availability in rural districts",
		},
		OverallAssessment: &OverallAssessment{
			ClinicalRelevance:    RatingExcellent,
			ImplementationStatus: "implemented",
		},
		PhysicianConsent: &PhysicianConsent{
			Consented:     true,
			PhysicianName: "Dr. Mehta",
			Institution:   "City Hospital",
		},
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	engine := NewEngine(nil)
	payload := fullPayload()

	first := engine.Score(&payload)
	second := engine.Score(&payload)

	assert.Equal(t, first, second)
}

func TestCompletenessBounds(t *testing.T) {
	engine := NewEngine(nil)

	empty := engine.Score(&Payload{})
	assert.Equal(t, 0, empty.CompletenessScore)
	assert.Equal(t, SectionKeys(), empty.MissingSections)

	payload := fullPayload()
	full := engine.Score(&payload)
	assert.Equal(t, 100, full.CompletenessScore)
	assert.Empty(t, full.MissingSections)
}

func TestOverallScoreIsMean(t *testing.T) {
	engine := NewEngine(nil)
	for _, payload := range []Payload{{}, fullPayload(), {
		DiseaseOverview: &DiseaseOverview{DiseaseName: "Asthma"},
		Medications:     []Medication{{Name: "Salbutamol"}},
	}} {
		scores := engine.Score(&payload)
		mean := float64(scores.CompletenessScore+scores.DataQualityScore+scores.ClinicalRelevanceScore) / 3
		assert.InDelta(t, mean, float64(scores.OverallScore), 0.5)
		assert.GreaterOrEqual(t, scores.OverallScore, 0)
		assert.LessOrEqual(t, scores.OverallScore, 100)
	}
}

func TestDataQualityCountsCheckableRecords(t *testing.T) {
	engine := NewEngine(nil)

	scores := engine.Score(&Payload{
		Medications: []Medication{
			{Name: "Metformin", Sufficient: true},
			{Name: "Insulin", Sufficient: false},
		},
		Misdiagnoses: []Misdiagnosis{
			{CommonMisdiagnosis: "Type 1 diabetes", Resolved: true},
			{CommonMisdiagnosis: "MODY", Resolved: true},
		},
	})
	// 3 of 4 checkable records flagged.
	assert.Equal(t, 75, scores.DataQualityScore)

	noCheckable := engine.Score(&Payload{
		DiseaseOverview: &DiseaseOverview{DiseaseName: "Gout"},
	})
	assert.Equal(t, 0, noCheckable.DataQualityScore)
	assert.Contains(t, noCheckable.ValidationWarnings,
		"no checkable records supplied; data quality defaults to 0")
}

func TestClinicalRelevanceMapping(t *testing.T) {
	engine := NewEngine(nil)

	cases := []struct {
		rating RelevanceRating
		points int
	}{
		{RatingExcellent, 100},
		{RatingHigh, 100},
		{RatingGood, 80},
		{RatingMedium, 70},
		{RatingFair, 60},
		{RatingLow, 50},
		{RatingPoor, 40},
	}
	for _, tc := range cases {
		scores := engine.Score(&Payload{
			OverallAssessment: &OverallAssessment{ClinicalRelevance: tc.rating},
		})
		assert.Equal(t, tc.points, scores.ClinicalRelevanceScore, "rating %s", tc.rating)
	}

	// Averaged over every rated item: high subtype (100) + good assessment (80).
	averaged := engine.Score(&Payload{
		DiseaseSubtypes:   []DiseaseSubtype{{Name: "A", ClinicalImpact: RatingHigh}},
		OverallAssessment: &OverallAssessment{ClinicalRelevance: RatingGood},
	})
	assert.Equal(t, 90, averaged.ClinicalRelevanceScore)

	unrated := engine.Score(&Payload{})
	assert.Equal(t, 0, unrated.ClinicalRelevanceScore)
}

func TestDiabetesRoundTrip(t *testing.T) {
	engine := NewEngine(nil)
	payload := Payload{
		DiseaseOverview: &DiseaseOverview{DiseaseName: "Type 2 Diabetes Mellitus"},
		Medications:     []Medication{{Name: "Metformin", Sufficient: true}},
		RedFlags:        []RedFlag{{Symptom: "Diabetic ketoacidosis", Sufficient: true}},
		OverallAssessment: &OverallAssessment{
			ClinicalRelevance: RatingExcellent,
		},
	}

	scores := engine.Score(&payload)

	assert.Equal(t, 100, scores.DataQualityScore)
	assert.Equal(t, 100, scores.ClinicalRelevanceScore)
	// 4 of 14 sections present.
	assert.Equal(t, 29, scores.CompletenessScore)
	assert.Equal(t, 76, scores.OverallScore)
	assert.Equal(t, []string{
		"diseaseSubtypes", "clinicalStages", "symptomsByStage",
		"progressionTimeline", "labValues", "comorbidities",
		"contraindications", "monitoringRequirements", "misdiagnoses",
		"regionalPractices",
	}, scores.MissingSections)
}

func TestIndexTokenizesWithoutStemming(t *testing.T) {
	engine := NewEngine(nil)
	index := engine.Index(&Payload{
		DiseaseOverview: &DiseaseOverview{
			DiseaseName: "Chronic Kidney Disease",
			DiseaseType: "chronic",
			Region:      "Kerala",
		},
	})

	assert.Contains(t, index.Keywords, "kidney")
	assert.NotContains(t, index.Keywords, "kidneys")
	assert.Contains(t, index.Keywords, "chronic")
	assert.Contains(t, index.Categories, "chronic")
	assert.Contains(t, index.Regions, "kerala")
}

func TestIndexDeduplicatesKeywords(t *testing.T) {
	engine := NewEngine(nil)
	index := engine.Index(&Payload{
		DiseaseOverview: &DiseaseOverview{
			DiseaseName: "Kidney Disease",
			Description: "kidney disease of the kidney",
		},
	})

	seen := make(map[string]int)
	for _, kw := range index.Keywords {
		seen[kw]++
	}
	assert.Equal(t, 1, seen["kidney"])
	assert.Equal(t, 1, seen["disease"])
}

func TestIndexImplementationStatusPassthrough(t *testing.T) {
	engine := NewEngine(nil)
	index := engine.Index(&Payload{
		OverallAssessment: &OverallAssessment{ImplementationStatus: "in-progress"},
	})
	assert.Equal(t, "in-progress", index.ImplementationStatus)
}

func TestPlaceholderScorerIsPluggable(t *testing.T) {
	deterministic := NewEngine(nil)
	first := deterministic.Analytics()
	second := deterministic.Analytics()
	require.Equal(t, first, second)
	assert.Equal(t, 75, first.AccuracyScore)

	custom := NewEngine(FixedPlaceholderScorer{Value: 42})
	assert.Equal(t, 42, custom.Analytics().EvidenceScore)
}
