package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/errs"
)

// Repository is the typed CRUD boundary over the document store.
type Repository interface {
	Create(ctx context.Context, submission *Submission) error
	// GetBySubmissionID looks up by the submissionId field, not the store's
	// internal key. Returns (nil, nil) when absent.
	GetBySubmissionID(ctx context.Context, submissionID string) (*Submission, error)
	ListByCollaborator(ctx context.Context, collaboratorID string, limit int64) ([]Submission, error)
	ListByStatus(ctx context.Context, status SubmissionStatus, limit int64) ([]Submission, error)
	// ListRecent returns the newest submissions across all collaborators,
	// submittedAt descending.
	ListRecent(ctx context.Context, limit int64) ([]Submission, error)
	// SearchByKeyword is a set-membership filter against the precomputed
	// searchIndex.keywords array. Caller pre-lowers case. No ranking.
	SearchByKeyword(ctx context.Context, keyword string) ([]Submission, error)
	// UpdateStatus is a compare-and-swap on version: it fails with
	// errs.ErrConflict when the stored version no longer matches.
	UpdateStatus(ctx context.Context, submissionID string, status SubmissionStatus, actorID string, expectedVersion int64) error
	// Replace swaps the whole document under the same CAS rule, used when a
	// resubmit recomputes the derived blocks.
	Replace(ctx context.Context, submission *Submission, expectedVersion int64) error
	// Watch opens a change stream over the submission collection.
	Watch(ctx context.Context) (*mongo.ChangeStream, error)
}

type mongoRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoRepository creates a repository over the given collection. Every
// call runs under the configured deadline; zero falls back to 10s.
func NewMongoRepository(collection *mongo.Collection, timeout time.Duration) Repository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &mongoRepository{collection: collection, timeout: timeout}
}

func (r *mongoRepository) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *mongoRepository) Create(ctx context.Context, submission *Submission) error {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, submission)
	return mapStoreErr(err)
}

func (r *mongoRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*Submission, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	var submission Submission
	err := r.collection.FindOne(ctx, bson.M{"submissionId": submissionID}).Decode(&submission)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return &submission, nil
}

func (r *mongoRepository) ListByCollaborator(ctx context.Context, collaboratorID string, limit int64) ([]Submission, error) {
	return r.list(ctx, bson.M{"collaboratorId": collaboratorID}, limit)
}

func (r *mongoRepository) ListByStatus(ctx context.Context, status SubmissionStatus, limit int64) ([]Submission, error) {
	return r.list(ctx, bson.M{"status": status}, limit)
}

func (r *mongoRepository) ListRecent(ctx context.Context, limit int64) ([]Submission, error) {
	return r.list(ctx, bson.M{}, limit)
}

func (r *mongoRepository) SearchByKeyword(ctx context.Context, keyword string) ([]Submission, error) {
	return r.list(ctx, bson.M{"searchIndex.keywords": keyword}, 0)
}

func (r *mongoRepository) list(ctx context.Context, filter bson.M, limit int64) ([]Submission, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer cursor.Close(ctx)

	var submissions []Submission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, mapStoreErr(err)
	}
	return submissions, nil
}

func (r *mongoRepository) UpdateStatus(ctx context.Context, submissionID string, status SubmissionStatus, actorID string, expectedVersion int64) error {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	filter := bson.M{"submissionId": submissionID, "version": expectedVersion}
	update := bson.M{
		"$set": bson.M{
			"status":                  status,
			"metadata.statusTag":      status,
			"metadata.updatedAt":      time.Now(),
			"metadata.lastModifiedBy": actorID,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing document from a lost CAS race.
		count, err := r.collection.CountDocuments(ctx, bson.M{"submissionId": submissionID})
		if err != nil {
			return mapStoreErr(err)
		}
		if count == 0 {
			return errs.ErrNotFound
		}
		return errs.ErrConflict
	}
	return nil
}

func (r *mongoRepository) Replace(ctx context.Context, submission *Submission, expectedVersion int64) error {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	filter := bson.M{"submissionId": submission.SubmissionID, "version": expectedVersion}
	result, err := r.collection.ReplaceOne(ctx, filter, submission)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"submissionId": submission.SubmissionID})
		if err != nil {
			return mapStoreErr(err)
		}
		if count == 0 {
			return errs.ErrNotFound
		}
		return errs.ErrConflict
	}
	return nil
}

func (r *mongoRepository) Watch(ctx context.Context) (*mongo.ChangeStream, error) {
	stream, err := r.collection.Watch(ctx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return stream, nil
}

// mapStoreErr converts driver errors into the portal's error kinds.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", errs.ErrDeadlineExceeded, err)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == 13 || cmdErr.Name == "Unauthorized") {
		return fmt.Errorf("%w: %v", errs.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
}
