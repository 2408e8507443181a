package submissions

import (
	"context"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/errs"
)

const defaultListLimit = 100

// Service orchestrates schema validation, building, scoring and persistence
// for submissions. Write errors always propagate to the caller; single-id
// reads return nil for absent documents.
type Service interface {
	SaveDraft(ctx context.Context, collaborator *UserProfile, formType FormType, payload Payload) (*Submission, error)
	Submit(ctx context.Context, collaborator *UserProfile, formType FormType, payload Payload) (*Submission, error)
	Resubmit(ctx context.Context, collaborator *UserProfile, submissionID string, payload Payload) (*Submission, error)
	Get(ctx context.Context, submissionID string) (*Submission, error)
	ListByCollaborator(ctx context.Context, collaboratorID string, limit int64) ([]Submission, error)
	ListByStatus(ctx context.Context, status SubmissionStatus, limit int64) ([]Submission, error)
	Search(ctx context.Context, keyword string) ([]Submission, error)
	UpdateStatus(ctx context.Context, submissionID string, status SubmissionStatus, actorID string, expectedVersion int64) error
}

type submissionService struct {
	repo    Repository
	engine  *Engine
	builder *Builder
	logger  *zap.Logger
}

// NewService creates the submission service.
func NewService(repo Repository, engine *Engine, logger *zap.Logger) Service {
	return &submissionService{
		repo:    repo,
		engine:  engine,
		builder: NewBuilder(engine),
		logger:  logger,
	}
}

// SaveDraft stores a work-in-progress submission without full schema
// validation. Scores are still computed so the contributor sees them early.
func (s *submissionService) SaveDraft(ctx context.Context, collaborator *UserProfile, formType FormType, payload Payload) (*Submission, error) {
	submission, err := s.builder.Build(BuildRequest{
		FormType:     formType,
		Payload:      payload,
		Collaborator: collaborator,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		s.logger.Error("Failed to save draft",
			zap.String("collaborator_id", collaborator.UID),
			zap.Error(err))
		return nil, err
	}
	return submission, nil
}

// Submit validates the payload against its form schema, composes the document
// and performs exactly one write. Schema failures never reach storage.
func (s *submissionService) Submit(ctx context.Context, collaborator *UserProfile, formType FormType, payload Payload) (*Submission, error) {
	if collaborator == nil || collaborator.UID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if err := ValidatePayload(formType, &payload); err != nil {
		return nil, err
	}

	submission, err := s.builder.Build(BuildRequest{
		FormType:     formType,
		Payload:      payload,
		Collaborator: collaborator,
	})
	if err != nil {
		return nil, err
	}
	submission.Status = StatusSubmitted
	submission.Metadata.StatusTag = StatusSubmitted

	if err := s.repo.Create(ctx, submission); err != nil {
		s.logger.Error("Failed to store submission",
			zap.String("submission_id", submission.SubmissionID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Submission stored",
		zap.String("submission_id", submission.SubmissionID),
		zap.String("form_type", string(formType)),
		zap.Int("overall_score", submission.Validation.OverallScore))
	return submission, nil
}

// Resubmit replaces the payload of an existing submission and recomputes the
// derived blocks as a whole, under compare-and-swap on the stored version.
func (s *submissionService) Resubmit(ctx context.Context, collaborator *UserProfile, submissionID string, payload Payload) (*Submission, error) {
	if collaborator == nil || collaborator.UID == "" {
		return nil, errs.ErrUnauthenticated
	}

	existing, err := s.repo.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errs.ErrNotFound
	}
	if err := ValidatePayload(existing.FormType, &payload); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Payload = *clonePayload(&payload)
	updated.Validation = s.engine.Score(&updated.Payload)
	updated.SearchIndex = s.engine.Index(&updated.Payload)
	updated.Status = StatusSubmitted
	updated.Metadata.StatusTag = StatusSubmitted
	updated.Metadata.UpdatedAt = time.Now()
	updated.Metadata.LastModifiedBy = collaborator.UID
	updated.IsSynthetic = LooksSynthetic(&updated)
	updated.Version = existing.Version + 1

	if err := s.repo.Replace(ctx, &updated, existing.Version); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *submissionService) Get(ctx context.Context, submissionID string) (*Submission, error) {
	return s.repo.GetBySubmissionID(ctx, submissionID)
}

func (s *submissionService) ListByCollaborator(ctx context.Context, collaboratorID string, limit int64) ([]Submission, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListByCollaborator(ctx, collaboratorID, limit)
}

func (s *submissionService) ListByStatus(ctx context.Context, status SubmissionStatus, limit int64) ([]Submission, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListByStatus(ctx, status, limit)
}

// Search lowers the keyword before the containment lookup; the stored index
// is already lowercase.
func (s *submissionService) Search(ctx context.Context, keyword string) ([]Submission, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return []Submission{}, nil
	}
	return s.repo.SearchByKeyword(ctx, keyword)
}

// UpdateStatus moves a submission forward in its lifecycle. The derived
// blocks are recomputed on every transition; when they already match the
// stored document only the status fields are written.
func (s *submissionService) UpdateStatus(ctx context.Context, submissionID string, status SubmissionStatus, actorID string, expectedVersion int64) error {
	if actorID == "" {
		return errs.ErrUnauthenticated
	}

	existing, err := s.repo.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errs.ErrNotFound
	}
	if !CanTransition(existing.Status, status) {
		return errs.ErrInvalidTransition
	}

	scores := s.engine.Score(&existing.Payload)
	index := s.engine.Index(&existing.Payload)
	if reflect.DeepEqual(scores, existing.Validation) && reflect.DeepEqual(index, existing.SearchIndex) {
		return s.repo.UpdateStatus(ctx, submissionID, status, actorID, expectedVersion)
	}

	// Stored derived blocks drifted (older scoring rules); rewrite the whole
	// document so they never diverge from the payload.
	updated := *existing
	updated.Status = status
	updated.Validation = scores
	updated.SearchIndex = index
	updated.Metadata.StatusTag = status
	updated.Metadata.UpdatedAt = time.Now()
	updated.Metadata.LastModifiedBy = actorID
	updated.Version = expectedVersion + 1
	return s.repo.Replace(ctx, &updated, expectedVersion)
}
