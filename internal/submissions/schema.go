package submissions

import (
	"fmt"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/errs"
)

// Section is one named payload section with its own presence predicate.
// Arrays count as present when non-empty; object sections when at least one
// scalar field is filled in.
type Section struct {
	Key      string
	Required bool
	Present  func(*Payload) bool
}

// sections is the fixed list completeness is scored against. Order matters
// only for the stable ordering of missing-section names.
var sections = []Section{
	{Key: "diseaseOverview", Required: true, Present: func(p *Payload) bool {
		o := p.DiseaseOverview
		return o != nil && (o.DiseaseName != "" || o.CommonName != "" || o.ICD10Code != "" || o.Description != "")
	}},
	{Key: "diseaseSubtypes", Present: func(p *Payload) bool { return len(p.DiseaseSubtypes) > 0 }},
	{Key: "clinicalStages", Present: func(p *Payload) bool { return len(p.ClinicalStages) > 0 }},
	{Key: "symptomsByStage", Present: func(p *Payload) bool { return len(p.SymptomsByStage) > 0 }},
	{Key: "medications", Present: func(p *Payload) bool { return len(p.Medications) > 0 }},
	{Key: "redFlags", Present: func(p *Payload) bool { return len(p.RedFlags) > 0 }},
	{Key: "progressionTimeline", Present: func(p *Payload) bool { return len(p.ProgressionTimeline) > 0 }},
	{Key: "labValues", Present: func(p *Payload) bool { return len(p.LabValues) > 0 }},
	{Key: "comorbidities", Present: func(p *Payload) bool { return len(p.Comorbidities) > 0 }},
	{Key: "contraindications", Present: func(p *Payload) bool { return len(p.Contraindications) > 0 }},
	{Key: "monitoringRequirements", Present: func(p *Payload) bool { return len(p.MonitoringRequirements) > 0 }},
	{Key: "misdiagnoses", Present: func(p *Payload) bool { return len(p.Misdiagnoses) > 0 }},
	{Key: "regionalPractices", Present: func(p *Payload) bool {
		r := p.RegionalPractices
		return r != nil && (r.UrbanDiagnosisMethods != "" || r.RuralDiagnosisMethods != "" ||
			r.UrbanMedicationUse != "" || r.RuralMedicationUse != "" || r.CareAccessBarriers != "")
	}},
	{Key: "overallAssessment", Present: func(p *Payload) bool {
		a := p.OverallAssessment
		return a != nil && (a.ClinicalRelevance != "" || a.ImplementationStatus != "" ||
			a.ClinicianExperienceYears > 0 || a.AdditionalNotes != "")
	}},
}

// SectionKeys returns the fixed section list in scoring order.
func SectionKeys() []string {
	keys := make([]string, len(sections))
	for i, s := range sections {
		keys[i] = s.Key
	}
	return keys
}

var validRatings = map[RelevanceRating]bool{
	RatingExcellent: true,
	RatingHigh:      true,
	RatingGood:      true,
	RatingMedium:    true,
	RatingFair:      true,
	RatingLow:       true,
	RatingPoor:      true,
}

var validDiseaseTypes = map[string]bool{
	"": true, "acute": true, "chronic": true, "recurrent": true, "congenital": true,
}

// FormSchema describes one form variant: which sections its wizard collects
// and which are mandatory before a submit is accepted.
type FormSchema struct {
	FormType         FormType
	RequiredSections []string
	RequiresConsent  bool
}

var formSchemas = map[FormType]FormSchema{
	FormComprehensiveParameterValidation: {
		FormType:         FormComprehensiveParameterValidation,
		RequiredSections: []string{"diseaseOverview"},
		RequiresConsent:  true,
	},
	FormAdvancedClinicalAnalytics: {
		FormType:         FormAdvancedClinicalAnalytics,
		RequiredSections: []string{"diseaseOverview", "overallAssessment"},
		RequiresConsent:  true,
	},
}

// SchemaFor returns the schema for a form type, defaulting to the
// comprehensive form for unknown tags.
func SchemaFor(formType FormType) FormSchema {
	if schema, ok := formSchemas[formType]; ok {
		return schema
	}
	return formSchemas[FormComprehensiveParameterValidation]
}

// ValidatePayload checks a payload against its form schema. Field errors are
// collected and returned together as a *errs.ValidationError; a payload that
// fails here never reaches storage.
func ValidatePayload(formType FormType, payload *Payload) error {
	schema := SchemaFor(formType)
	var fields []errs.FieldError

	present := make(map[string]bool, len(sections))
	for _, s := range sections {
		present[s.Key] = s.Present(payload)
	}
	for _, key := range schema.RequiredSections {
		if !present[key] {
			fields = append(fields, errs.FieldError{
				Field:   key,
				Message: "required section is missing or empty",
			})
		}
	}

	if o := payload.DiseaseOverview; o != nil {
		if o.DiseaseName == "" {
			fields = append(fields, errs.FieldError{Field: "diseaseOverview.diseaseName", Message: "disease name is required"})
		}
		if !validDiseaseTypes[o.DiseaseType] {
			fields = append(fields, errs.FieldError{
				Field:   "diseaseOverview.diseaseType",
				Message: fmt.Sprintf("unknown disease type %q", o.DiseaseType),
			})
		}
	}

	for i, subtype := range payload.DiseaseSubtypes {
		if subtype.Name == "" {
			fields = append(fields, errs.FieldError{
				Field:   fmt.Sprintf("diseaseSubtypes[%d].name", i),
				Message: "subtype name is required",
			})
		}
		if subtype.ClinicalImpact != "" && !validRatings[subtype.ClinicalImpact] {
			fields = append(fields, errs.FieldError{
				Field:   fmt.Sprintf("diseaseSubtypes[%d].clinicalImpact", i),
				Message: fmt.Sprintf("unknown rating %q", subtype.ClinicalImpact),
			})
		}
	}

	for i, med := range payload.Medications {
		if med.Name == "" {
			fields = append(fields, errs.FieldError{
				Field:   fmt.Sprintf("medications[%d].name", i),
				Message: "medication name is required",
			})
		}
	}

	for i, lab := range payload.LabValues {
		if lab.TestName == "" {
			fields = append(fields, errs.FieldError{
				Field:   fmt.Sprintf("labValues[%d].testName", i),
				Message: "test name is required",
			})
		}
	}

	for i, point := range payload.ProgressionTimeline {
		if point.AverageDurationMonths < 0 {
			fields = append(fields, errs.FieldError{
				Field:   fmt.Sprintf("progressionTimeline[%d].averageDurationMonths", i),
				Message: "duration cannot be negative",
			})
		}
	}

	if a := payload.OverallAssessment; a != nil {
		if a.ClinicalRelevance != "" && !validRatings[a.ClinicalRelevance] {
			fields = append(fields, errs.FieldError{
				Field:   "overallAssessment.clinicalRelevance",
				Message: fmt.Sprintf("unknown rating %q", a.ClinicalRelevance),
			})
		}
		if a.ClinicianExperienceYears < 0 {
			fields = append(fields, errs.FieldError{
				Field:   "overallAssessment.clinicianExperienceYears",
				Message: "experience years cannot be negative",
			})
		}
	}

	if schema.RequiresConsent {
		if payload.PhysicianConsent == nil || !payload.PhysicianConsent.Consented {
			fields = append(fields, errs.FieldError{
				Field:   "physicianConsent.consented",
				Message: "physician consent is required before submitting",
			})
		}
	}

	if len(fields) > 0 {
		return &errs.ValidationError{Fields: fields}
	}
	return nil
}
