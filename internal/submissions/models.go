package submissions

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubmissionStatus string

const (
	StatusDraft     SubmissionStatus = "draft"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusInReview  SubmissionStatus = "in-review"
	StatusApproved  SubmissionStatus = "approved"
	StatusRejected  SubmissionStatus = "rejected"
)

type FormType string

const (
	FormComprehensiveParameterValidation FormType = "comprehensive-parameter-validation"
	FormAdvancedClinicalAnalytics        FormType = "advanced-clinical-analytics"
)

// RelevanceRating is a categorical clinical-impact rating supplied by the
// contributing physician.
type RelevanceRating string

const (
	RatingExcellent RelevanceRating = "excellent"
	RatingHigh      RelevanceRating = "high"
	RatingGood      RelevanceRating = "good"
	RatingMedium    RelevanceRating = "medium"
	RatingFair      RelevanceRating = "fair"
	RatingLow       RelevanceRating = "low"
	RatingPoor      RelevanceRating = "poor"
)

// Submission is one stored physician-contributed form-fill document.
// Validation and SearchIndex are derived from Payload and are recomputed as a
// whole whenever the payload is (re)submitted; they are never hand-edited.
type Submission struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SubmissionID   string             `bson:"submissionId" json:"submission_id"`
	CollaboratorID string             `bson:"collaboratorId" json:"collaborator_id"`
	FormType       FormType           `bson:"formType" json:"form_type"`
	Status         SubmissionStatus   `bson:"status" json:"status"`
	Version        int64              `bson:"version" json:"version"`
	IsSynthetic    bool               `bson:"isSynthetic" json:"is_synthetic"`
	Payload        Payload            `bson:"payload" json:"payload"`
	Validation     ValidationScores   `bson:"validation" json:"validation"`
	SearchIndex    SearchIndex        `bson:"searchIndex" json:"search_index"`
	Metadata       Metadata           `bson:"metadata" json:"metadata"`
	SubmittedAt    time.Time          `bson:"submittedAt" json:"submitted_at"`
}

// Payload is the form-specific structured data: a tree of scalar fields and
// repeatable record arrays. Array order is display order; no uniqueness is
// enforced.
type Payload struct {
	DiseaseOverview        *DiseaseOverview        `bson:"diseaseOverview,omitempty" json:"disease_overview,omitempty"`
	DiseaseSubtypes        []DiseaseSubtype        `bson:"diseaseSubtypes,omitempty" json:"disease_subtypes,omitempty"`
	ClinicalStages         []ClinicalStage         `bson:"clinicalStages,omitempty" json:"clinical_stages,omitempty"`
	SymptomsByStage        []StageSymptoms         `bson:"symptomsByStage,omitempty" json:"symptoms_by_stage,omitempty"`
	Medications            []Medication            `bson:"medications,omitempty" json:"medications,omitempty"`
	RedFlags               []RedFlag               `bson:"redFlags,omitempty" json:"red_flags,omitempty"`
	ProgressionTimeline    []ProgressionPoint      `bson:"progressionTimeline,omitempty" json:"progression_timeline,omitempty"`
	LabValues              []LabValue              `bson:"labValues,omitempty" json:"lab_values,omitempty"`
	Comorbidities          []Comorbidity           `bson:"comorbidities,omitempty" json:"comorbidities,omitempty"`
	Contraindications      []Contraindication      `bson:"contraindications,omitempty" json:"contraindications,omitempty"`
	MonitoringRequirements []MonitoringRequirement `bson:"monitoringRequirements,omitempty" json:"monitoring_requirements,omitempty"`
	Misdiagnoses           []Misdiagnosis          `bson:"misdiagnoses,omitempty" json:"misdiagnoses,omitempty"`
	RegionalPractices      *RegionalPractices      `bson:"regionalPractices,omitempty" json:"regional_practices,omitempty"`
	PhysicianConsent       *PhysicianConsent       `bson:"physicianConsent,omitempty" json:"physician_consent,omitempty"`
	OverallAssessment      *OverallAssessment      `bson:"overallAssessment,omitempty" json:"overall_assessment,omitempty"`
	Notes                  string                  `bson:"notes,omitempty" json:"notes,omitempty"`
}

type DiseaseOverview struct {
	DiseaseName       string `bson:"diseaseName" json:"disease_name"`
	CommonName        string `bson:"commonName,omitempty" json:"common_name,omitempty"`
	ICD10Code         string `bson:"icd10Code,omitempty" json:"icd10_code,omitempty"`
	DiseaseType       string `bson:"diseaseType,omitempty" json:"disease_type,omitempty"` // acute, chronic, recurrent
	Description       string `bson:"description,omitempty" json:"description,omitempty"`
	TypicalOnsetAge   string `bson:"typicalOnsetAge,omitempty" json:"typical_onset_age,omitempty"`
	GeneticRiskFactor string `bson:"geneticRiskFactor,omitempty" json:"genetic_risk_factor,omitempty"`
	Region            string `bson:"region,omitempty" json:"region,omitempty"`
}

type DiseaseSubtype struct {
	Name               string          `bson:"name" json:"name"`
	DiagnosticCriteria string          `bson:"diagnosticCriteria,omitempty" json:"diagnostic_criteria,omitempty"`
	DistinctTreatment  bool            `bson:"distinctTreatment" json:"distinct_treatment"`
	ClinicalImpact     RelevanceRating `bson:"clinicalImpact,omitempty" json:"clinical_impact,omitempty"`
	Notes              string          `bson:"notes,omitempty" json:"notes,omitempty"`
}

type ClinicalStage struct {
	Name               string `bson:"name" json:"name"`
	Description        string `bson:"description,omitempty" json:"description,omitempty"`
	TypicalDuration    string `bson:"typicalDuration,omitempty" json:"typical_duration,omitempty"`
	TransitionTriggers string `bson:"transitionTriggers,omitempty" json:"transition_triggers,omitempty"`
}

type StageSymptoms struct {
	Stage             string   `bson:"stage" json:"stage"`
	MajorSymptoms     []string `bson:"majorSymptoms,omitempty" json:"major_symptoms,omitempty"`
	EarlySymptoms     []string `bson:"earlySymptoms,omitempty" json:"early_symptoms,omitempty"`
	SymptomPrevalence string   `bson:"symptomPrevalence,omitempty" json:"symptom_prevalence,omitempty"`
}

// Medication is a checkable record: Sufficient marks whether the physician
// judged the captured dosing information adequate.
type Medication struct {
	Name            string `bson:"name" json:"name"`
	LineOfTreatment string `bson:"lineOfTreatment,omitempty" json:"line_of_treatment,omitempty"`
	DrugClass       string `bson:"drugClass,omitempty" json:"drug_class,omitempty"`
	StandardDosage  string `bson:"standardDosage,omitempty" json:"standard_dosage,omitempty"`
	TriggerToStart  string `bson:"triggerToStart,omitempty" json:"trigger_to_start,omitempty"`
	Sufficient      bool   `bson:"isSufficient" json:"is_sufficient"`
}

// RedFlag is a checkable record.
type RedFlag struct {
	Symptom                 string `bson:"symptom" json:"symptom"`
	Stage                   string `bson:"stage,omitempty" json:"stage,omitempty"`
	HospitalizationRequired bool   `bson:"hospitalizationRequired" json:"hospitalization_required"`
	Critical                bool   `bson:"critical" json:"critical"`
	Sufficient              bool   `bson:"isSufficient" json:"is_sufficient"`
}

type ProgressionPoint struct {
	Stage                 string   `bson:"stage" json:"stage"`
	AverageDurationMonths float64  `bson:"averageDurationMonths,omitempty" json:"average_duration_months,omitempty"`
	TriggerFactors        []string `bson:"triggerFactors,omitempty" json:"trigger_factors,omitempty"`
}

type LabValue struct {
	Stage          string `bson:"stage,omitempty" json:"stage,omitempty"`
	TestName       string `bson:"testName" json:"test_name"`
	ExpectedRange  string `bson:"expectedRange,omitempty" json:"expected_range,omitempty"`
	CriticalValues string `bson:"criticalValues,omitempty" json:"critical_values,omitempty"`
	Units          string `bson:"units,omitempty" json:"units,omitempty"`
}

type Comorbidity struct {
	Condition string `bson:"condition" json:"condition"`
	Frequency string `bson:"frequency,omitempty" json:"frequency,omitempty"` // common, occasional, rare
	Stage     string `bson:"stage,omitempty" json:"stage,omitempty"`
}

type Contraindication struct {
	Drug      string `bson:"drug" json:"drug"`
	Condition string `bson:"condition,omitempty" json:"condition,omitempty"`
	Severity  string `bson:"severity,omitempty" json:"severity,omitempty"` // absolute, relative
}

// MonitoringRequirement is a checkable record: Implemented marks whether the
// monitoring protocol is in place at the contributor's institution.
type MonitoringRequirement struct {
	Stage       string `bson:"stage,omitempty" json:"stage,omitempty"`
	Parameter   string `bson:"parameter" json:"parameter"`
	Frequency   string `bson:"frequency,omitempty" json:"frequency,omitempty"`
	TargetValue string `bson:"targetValue,omitempty" json:"target_value,omitempty"`
	Implemented bool   `bson:"isImplemented" json:"is_implemented"`
}

// Misdiagnosis is a checkable record: Resolved marks whether differentiators
// sufficient to rule the misdiagnosis out were captured.
type Misdiagnosis struct {
	CommonMisdiagnosis string `bson:"commonMisdiagnosis" json:"common_misdiagnosis"`
	KeyDifferentiators string `bson:"keyDifferentiators,omitempty" json:"key_differentiators,omitempty"`
	Resolved           bool   `bson:"isResolved" json:"is_resolved"`
}

type RegionalPractices struct {
	UrbanDiagnosisMethods string `bson:"urbanDiagnosisMethods,omitempty" json:"urban_diagnosis_methods,omitempty"`
	RuralDiagnosisMethods string `bson:"ruralDiagnosisMethods,omitempty" json:"rural_diagnosis_methods,omitempty"`
	UrbanMedicationUse    string `bson:"urbanMedicationUse,omitempty" json:"urban_medication_use,omitempty"`
	RuralMedicationUse    string `bson:"ruralMedicationUse,omitempty" json:"rural_medication_use,omitempty"`
	CareAccessBarriers    string `bson:"careAccessBarriers,omitempty" json:"care_access_barriers,omitempty"`
}

type PhysicianConsent struct {
	Consented             bool   `bson:"consented" json:"consented"`
	PhysicianName         string `bson:"physicianName,omitempty" json:"physician_name,omitempty"`
	Institution           string `bson:"institution,omitempty" json:"institution,omitempty"`
	AttributionPreference string `bson:"attributionPreference,omitempty" json:"attribution_preference,omitempty"` // named, anonymous
}

type OverallAssessment struct {
	ClinicalRelevance        RelevanceRating `bson:"clinicalRelevance,omitempty" json:"clinical_relevance,omitempty"`
	ImplementationStatus     string          `bson:"implementationStatus,omitempty" json:"implementation_status,omitempty"`
	ClinicianExperienceYears int             `bson:"clinicianExperienceYears,omitempty" json:"clinician_experience_years,omitempty"`
	AdditionalNotes          string          `bson:"additionalNotes,omitempty" json:"additional_notes,omitempty"`
}

// ValidationScores is the derived scoring block. All scores are 0-100.
type ValidationScores struct {
	OverallScore           int      `bson:"overallScore" json:"overall_score"`
	CompletenessScore      int      `bson:"completenessScore" json:"completeness_score"`
	DataQualityScore       int      `bson:"dataQualityScore" json:"data_quality_score"`
	ClinicalRelevanceScore int      `bson:"clinicalRelevanceScore" json:"clinical_relevance_score"`
	MissingSections        []string `bson:"missingSections" json:"missing_sections"`
	ValidationWarnings     []string `bson:"validationWarnings" json:"validation_warnings"`
	ValidationErrors       []string `bson:"validationErrors" json:"validation_errors"`
}

// SearchIndex is the derived keyword block enabling containment-based lookup.
// Keywords are lowercase whitespace tokens of the payload's free text.
type SearchIndex struct {
	Keywords             []string `bson:"keywords" json:"keywords"`
	Tags                 []string `bson:"tags" json:"tags"`
	Categories           []string `bson:"categories" json:"categories"`
	Regions              []string `bson:"regions" json:"regions"`
	ImplementationStatus string   `bson:"implementationStatus,omitempty" json:"implementation_status,omitempty"`
}

// Metadata carries audit stamps and the access-control lists embedded in the
// document for the store's security rules. All ACLs default to the owner.
type Metadata struct {
	CreatedAt      time.Time        `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time        `bson:"updatedAt" json:"updated_at"`
	CreatedBy      string           `bson:"createdBy" json:"created_by"`
	LastModifiedBy string           `bson:"lastModifiedBy" json:"last_modified_by"`
	AccessRead     []string         `bson:"accessRead" json:"access_read"`
	AccessWrite    []string         `bson:"accessWrite" json:"access_write"`
	AccessAdmin    []string         `bson:"accessAdmin" json:"access_admin"`
	Priority       string           `bson:"priority,omitempty" json:"priority,omitempty"`
	StatusTag      SubmissionStatus `bson:"statusTag" json:"status_tag"`
}

// UserProfile is the slice of the auth collaborator's user record the core
// reads for attribution display. The core never mutates it.
type UserProfile struct {
	UID         string `bson:"uid" json:"uid"`
	DisplayName string `bson:"displayName" json:"display_name"`
	Institution string `bson:"institution,omitempty" json:"institution,omitempty"`
	Specialty   string `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Role        string `bson:"role,omitempty" json:"role,omitempty"`
}

// statusRank orders the lifecycle for forward-only transition checks.
var statusRank = map[SubmissionStatus]int{
	StatusDraft:     0,
	StatusSubmitted: 1,
	StatusInReview:  2,
	StatusApproved:  3,
	StatusRejected:  3,
}

// CanTransition reports whether a status change moves forward in the
// lifecycle. Approved and rejected are both terminal.
func CanTransition(from, to SubmissionStatus) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if fromRank >= statusRank[StatusApproved] {
		return false
	}
	return toRank > fromRank
}
