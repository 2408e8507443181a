package submissions

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/errs"
)

// syntheticMarkers are substrings that identify placeholder submissions when
// they appear in a disease, physician or institution name. The builder stamps
// IsSynthetic from them at build time so downstream consumers can filter on
// the flag instead of re-sniffing strings.
var syntheticMarkers = []string{
	"test", "dummy", "sample", "demo", "fake",
	"asdf", "qwerty", "lorem", "placeholder",
}

func matchesSyntheticMarker(value string) bool {
	lowered := strings.ToLower(value)
	for _, marker := range syntheticMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// LooksSynthetic applies the marker heuristic to a stored submission. Kept
// alongside the IsSynthetic flag so documents written before the flag existed
// are still filtered.
func LooksSynthetic(s *Submission) bool {
	if s.IsSynthetic {
		return true
	}
	if o := s.Payload.DiseaseOverview; o != nil {
		if matchesSyntheticMarker(o.DiseaseName) || matchesSyntheticMarker(o.CommonName) {
			return true
		}
	}
	if c := s.Payload.PhysicianConsent; c != nil {
		if matchesSyntheticMarker(c.PhysicianName) || matchesSyntheticMarker(c.Institution) {
			return true
		}
	}
	return false
}

// BuildRequest carries the validated form state for one submission.
type BuildRequest struct {
	FormType     FormType
	Payload      Payload
	Collaborator *UserProfile
	Priority     string
}

// Builder composes canonical Submission documents from validated form state.
// It never mutates the caller's payload and never writes to storage itself.
type Builder struct {
	engine *Engine
	now    func() time.Time
	newID  func() string
}

// NewBuilder creates a builder around a scoring engine.
func NewBuilder(engine *Engine) *Builder {
	return &Builder{
		engine: engine,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Build composes a new Submission: generated id, collaborator attribution,
// timestamps, version 1, owner-default ACLs and freshly computed validation
// and search-index blocks. Fails with errs.ErrUnauthenticated when no
// collaborator is supplied, before anything else happens.
func (b *Builder) Build(req BuildRequest) (*Submission, error) {
	if req.Collaborator == nil || req.Collaborator.UID == "" {
		return nil, errs.ErrUnauthenticated
	}

	now := b.now()
	payload := clonePayload(&req.Payload)

	submission := &Submission{
		SubmissionID:   b.newID(),
		CollaboratorID: req.Collaborator.UID,
		FormType:       req.FormType,
		Status:         StatusDraft,
		Version:        1,
		IsSynthetic:    false,
		Payload:        *payload,
		Validation:     b.engine.Score(payload),
		SearchIndex:    b.engine.Index(payload),
		SubmittedAt:    now,
		Metadata: Metadata{
			CreatedAt:      now,
			UpdatedAt:      now,
			CreatedBy:      req.Collaborator.UID,
			LastModifiedBy: req.Collaborator.UID,
			AccessRead:     []string{req.Collaborator.UID},
			AccessWrite:    []string{req.Collaborator.UID},
			AccessAdmin:    []string{req.Collaborator.UID},
			Priority:       req.Priority,
			StatusTag:      StatusDraft,
		},
	}
	submission.IsSynthetic = LooksSynthetic(submission) ||
		matchesSyntheticMarker(req.Collaborator.DisplayName) ||
		matchesSyntheticMarker(req.Collaborator.Institution)

	return submission, nil
}

// clonePayload copies the payload deeply enough that the built document never
// aliases caller-owned slices or nested structs.
func clonePayload(p *Payload) *Payload {
	clone := *p
	clone.DiseaseOverview = clonePtr(p.DiseaseOverview)
	clone.DiseaseSubtypes = append([]DiseaseSubtype(nil), p.DiseaseSubtypes...)
	clone.ClinicalStages = append([]ClinicalStage(nil), p.ClinicalStages...)
	clone.SymptomsByStage = cloneStageSymptoms(p.SymptomsByStage)
	clone.Medications = append([]Medication(nil), p.Medications...)
	clone.RedFlags = append([]RedFlag(nil), p.RedFlags...)
	clone.ProgressionTimeline = cloneProgression(p.ProgressionTimeline)
	clone.LabValues = append([]LabValue(nil), p.LabValues...)
	clone.Comorbidities = append([]Comorbidity(nil), p.Comorbidities...)
	clone.Contraindications = append([]Contraindication(nil), p.Contraindications...)
	clone.MonitoringRequirements = append([]MonitoringRequirement(nil), p.MonitoringRequirements...)
	clone.Misdiagnoses = append([]Misdiagnosis(nil), p.Misdiagnoses...)
	clone.RegionalPractices = clonePtr(p.RegionalPractices)
	clone.PhysicianConsent = clonePtr(p.PhysicianConsent)
	clone.OverallAssessment = clonePtr(p.OverallAssessment)
	return &clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func cloneStageSymptoms(in []StageSymptoms) []StageSymptoms {
	if in == nil {
		return nil
	}
	out := make([]StageSymptoms, len(in))
	for i, s := range in {
		out[i] = s
		out[i].MajorSymptoms = append([]string(nil), s.MajorSymptoms...)
		out[i].EarlySymptoms = append([]string(nil), s.EarlySymptoms...)
	}
	return out
}

func cloneProgression(in []ProgressionPoint) []ProgressionPoint {
	if in == nil {
		return nil
	}
	out := make([]ProgressionPoint, len(in))
	for i, p := range in {
		out[i] = p
		out[i].TriggerFactors = append([]string(nil), p.TriggerFactors...)
	}
	return out
}
