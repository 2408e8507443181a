package submissions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/errs"
)

func testCollaborator() *UserProfile {
	return &UserProfile{
		UID:         "uid-123",
		DisplayName: "Dr. Mehta",
		Institution: "City Hospital",
		Specialty:   "Nephrology",
	}
}

func TestBuildRequiresCollaborator(t *testing.T) {
	builder := NewBuilder(NewEngine(nil))

	_, err := builder.Build(BuildRequest{
		FormType: FormComprehensiveParameterValidation,
		Payload:  fullPayload(),
	})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = builder.Build(BuildRequest{
		FormType:     FormComprehensiveParameterValidation,
		Payload:      fullPayload(),
		Collaborator: &UserProfile{},
	})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestBuildStampsDocument(t *testing.T) {
	builder := NewBuilder(NewEngine(nil))
	before := time.Now()

	submission, err := builder.Build(BuildRequest{
		FormType:     FormComprehensiveParameterValidation,
		Payload:      fullPayload(),
		Collaborator: testCollaborator(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, submission.SubmissionID)
	assert.Equal(t, "uid-123", submission.CollaboratorID)
	assert.Equal(t, StatusDraft, submission.Status)
	assert.Equal(t, StatusDraft, submission.Metadata.StatusTag)
	assert.Equal(t, int64(1), submission.Version)
	assert.False(t, submission.IsSynthetic)
	assert.Equal(t, []string{"uid-123"}, submission.Metadata.AccessRead)
	assert.Equal(t, []string{"uid-123"}, submission.Metadata.AccessWrite)
	assert.Equal(t, []string{"uid-123"}, submission.Metadata.AccessAdmin)
	assert.Equal(t, "uid-123", submission.Metadata.CreatedBy)
	assert.False(t, submission.SubmittedAt.Before(before))

	// Derived blocks are computed at build time.
	assert.Equal(t, 100, submission.Validation.CompletenessScore)
	assert.Contains(t, submission.SearchIndex.Keywords, "kidney")
}

func TestBuildGeneratesUniqueIDs(t *testing.T) {
	builder := NewBuilder(NewEngine(nil))

	first, err := builder.Build(BuildRequest{Payload: fullPayload(), Collaborator: testCollaborator()})
	require.NoError(t, err)
	second, err := builder.Build(BuildRequest{Payload: fullPayload(), Collaborator: testCollaborator()})
	require.NoError(t, err)

	assert.NotEqual(t, first.SubmissionID, second.SubmissionID)
}

func TestBuildDoesNotAliasCallerPayload(t *testing.T) {
	builder := NewBuilder(NewEngine(nil))
	payload := fullPayload()

	submission, err := builder.Build(BuildRequest{
		Payload:      payload,
		Collaborator: testCollaborator(),
	})
	require.NoError(t, err)

	submission.Payload.DiseaseOverview.DiseaseName = "changed"
	submission.Payload.Medications[0].Name = "changed"
	submission.Payload.SymptomsByStage[0].MajorSymptoms[0] = "changed"

	assert.Equal(t, "Chronic Kidney Disease", payload.DiseaseOverview.DiseaseName)
	assert.Equal(t, "Lisinopril", payload.Medications[0].Name)
	assert.Equal(t, "fatigue", payload.SymptomsByStage[0].MajorSymptoms[0])
}

func TestBuildFlagsSyntheticSubmissions(t *testing.T) {
	builder := NewBuilder(NewEngine(nil))

	cases := []struct {
		name    string
		mutate  func(*Payload)
		profile *UserProfile
	}{
		{"disease name marker", func(p *Payload) {
			p.DiseaseOverview.DiseaseName = "Test Disease"
		}, testCollaborator()},
		{"common name marker", func(p *Payload) {
			p.DiseaseOverview.CommonName = "sample condition"
		}, testCollaborator()},
		{"institution marker", func(p *Payload) {
			p.PhysicianConsent.Institution = "Demo Clinic"
		}, testCollaborator()},
		{"collaborator display name marker", func(p *Payload) {},
			&UserProfile{UID: "uid-9", DisplayName: "Dummy User"}},
	}

	for _, tc := range cases {
		payload := fullPayload()
		tc.mutate(&payload)
		submission, err := builder.Build(BuildRequest{
			Payload:      payload,
			Collaborator: tc.profile,
		})
		require.NoError(t, err)
		assert.True(t, submission.IsSynthetic, tc.name)
	}
}

func TestLooksSyntheticHeuristicOnStoredDocs(t *testing.T) {
	legit := &Submission{Payload: fullPayload()}
	assert.False(t, LooksSynthetic(legit))

	flagged := &Submission{IsSynthetic: true, Payload: fullPayload()}
	assert.True(t, LooksSynthetic(flagged))

	legacy := &Submission{Payload: Payload{
		DiseaseOverview: &DiseaseOverview{DiseaseName: "Fake Fever"},
	}}
	assert.True(t, LooksSynthetic(legacy))
}
