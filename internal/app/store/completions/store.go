// internal/app/store/completions/store.go
package completions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/system/completion"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Marker sources.
const (
	SourceSubmit = "submit" // recorded when the user submitted through hrdesk
	SourceEvent  = "event"  // recorded from an evaluationCompleted event
)

// ErrBadInput is returned for a blank user or evaluation id.
var ErrBadInput = errors.New("completions: user id and evaluation id are required")

// Marker says "this user has completed this evaluation", as observed locally.
type Marker struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	EvaluationID string             `bson:"evaluation_id"`
	Source       string             `bson:"source"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// Submission is one entry in a user's submission history.
type Submission struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	EvaluationID string             `bson:"evaluation_id"`
	ResponseID   string             `bson:"response_id,omitempty"`
	SubmittedAt  time.Time          `bson:"submitted_at"`
}

// Store persists completion markers and submission history.
type Store struct {
	markers *mongo.Collection
	history *mongo.Collection
}

// New creates a new completions Store.
func New(db *mongo.Database) *Store {
	return &Store{
		markers: db.Collection("completion_markers"),
		history: db.Collection("submission_history"),
	}
}

// EnsureIndexes creates the unique marker index and the lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.markers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "evaluation_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_evaluation"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	})
	if err != nil {
		return err
	}
	_, err = s.history.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_user_submitted"),
		},
		{
			Keys:    bson.D{{Key: "submitted_at", Value: 1}},
			Options: options.Index().SetName("idx_submitted_at"),
		},
	})
	return err
}

// Mark records that userID completed evaluationID. Marking twice is a no-op;
// the original source and time are kept.
func (s *Store) Mark(ctx context.Context, userID, evaluationID, source string) error {
	userID, evaluationID = strings.TrimSpace(userID), strings.TrimSpace(evaluationID)
	if userID == "" || evaluationID == "" {
		return ErrBadInput
	}
	filter := bson.M{"user_id": userID, "evaluation_id": evaluationID}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":           primitive.NewObjectID(),
		"user_id":       userID,
		"evaluation_id": evaluationID,
		"source":        source,
		"created_at":    time.Now().UTC(),
	}}
	_, err := s.markers.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Lost an upsert race; the marker exists.
		return nil
	}
	return err
}

// Unmark forgets that userID completed evaluationID: the marker and every
// history entry for it are removed. It reports whether anything existed.
func (s *Store) Unmark(ctx context.Context, userID, evaluationID string) (bool, error) {
	filter := bson.M{"user_id": userID, "evaluation_id": evaluationID}
	mres, err := s.markers.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	hres, err := s.history.DeleteMany(ctx, filter)
	if err != nil {
		return false, err
	}
	return mres.DeletedCount+hres.DeletedCount > 0, nil
}

// MarkerIDs returns the evaluation ids userID has markers for.
func (s *Store) MarkerIDs(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.markers.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"evaluation_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []Marker
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.EvaluationID)
	}
	return ids, nil
}

// RecordSubmission appends to userID's submission history.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) error {
	if strings.TrimSpace(sub.UserID) == "" || strings.TrimSpace(sub.EvaluationID) == "" {
		return ErrBadInput
	}
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	_, err := s.history.InsertOne(ctx, sub)
	return err
}

// Evidence loads markers and the full submission history for the
// reconciliation.
func (s *Store) Evidence(ctx context.Context, userID string) (completion.Evidence, error) {
	ids, err := s.MarkerIDs(ctx, userID)
	if err != nil {
		return completion.Evidence{}, err
	}
	cur, err := s.history.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"evaluation_id": 1, "response_id": 1, "submitted_at": 1}))
	if err != nil {
		return completion.Evidence{}, err
	}
	defer cur.Close(ctx)

	var hist []Submission
	if err := cur.All(ctx, &hist); err != nil {
		return completion.Evidence{}, err
	}
	subs := make([]completion.Submission, 0, len(hist))
	for _, h := range hist {
		subs = append(subs, completion.Submission{
			EvaluationID: h.EvaluationID,
			ResponseID:   h.ResponseID,
			SubmittedAt:  h.SubmittedAt,
		})
	}
	return completion.NewEvidence(ids, subs), nil
}

// PruneOlderThan deletes markers created and submissions recorded before
// cutoff, and returns how many documents were removed.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	mres, err := s.markers.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	hres, err := s.history.DeleteMany(ctx, bson.M{"submitted_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return mres.DeletedCount, err
	}
	return mres.DeletedCount + hres.DeletedCount, nil
}
