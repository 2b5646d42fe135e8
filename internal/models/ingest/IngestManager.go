// This file contains the IngestManager implementation, which is responsible for interacting with the MongoDB runs collection.
// The IngestManager struct contains a pointer to the ingestdb.runs MongoDB collection and a logger. It provides methods to create,
// get and update runs. Interaction with runs is almost always by ID.

package ingest

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jr-dreamview/ingest-bulk/internal/log"
)

var (
	// ErrRunNotFound is returned when a requested run is not found in the database.
	ErrRunNotFound = errors.New("ingest run not found")
	// ErrExportNotFound is returned when an export result names a job the run does not have.
	ErrExportNotFound = errors.New("export job not found in run")
)

// DatabaseName returns the database used by the managers. Unit tests get their own database.
func DatabaseName(unittest bool) string {
	if unittest {
		return "ingestdb_test"
	}
	return "ingestdb"
}

type IngestManager struct {
	collection *mongo.Collection
	logger     *log.Logger
}

// NewIngestManager creates a new instance of IngestManager.
func NewIngestManager(client *mongo.Client, logger *log.Logger, unittest bool) *IngestManager {
	db := client.Database(DatabaseName(unittest))
	return &IngestManager{
		collection: db.Collection("runs"),
		logger:     logger,
	}
}

// CreateRun inserts a new run and returns its ID. A zero run ID is replaced by a new one.
func (im *IngestManager) CreateRun(ctx context.Context, run *IngestRun) (primitive.ObjectID, error) {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.UpdatedAt = run.CreatedAt

	if _, err := im.collection.InsertOne(ctx, run); err != nil {
		return primitive.NilObjectID, err
	}
	im.logger.Debugf("Created run %s for %s", run.ID.Hex(), run.ScenePath)
	return run.ID, nil
}

// GetRun retrieves a run by ID. Returns ErrRunNotFound if there is no such run.
func (im *IngestManager) GetRun(ctx context.Context, runID primitive.ObjectID) (*IngestRun, error) {
	var run IngestRun
	err := im.collection.FindOne(ctx, bson.M{"_id": runID}).Decode(&run)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// SetStatus updates the status of a run.
func (im *IngestManager) SetStatus(ctx context.Context, runID primitive.ObjectID, status int) error {
	result, err := im.collection.UpdateOne(
		ctx,
		bson.M{"_id": runID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrRunNotFound
	}
	return nil
}

// RecordExport stores the outcome of one export job and returns the updated run.
// Returns ErrExportNotFound if the run has no job with export.JobID.
func (im *IngestManager) RecordExport(ctx context.Context, runID primitive.ObjectID, export Export) (*IngestRun, error) {
	result, err := im.collection.UpdateOne(
		ctx,
		bson.M{"_id": runID, "exports.job_id": export.JobID},
		bson.M{"$set": bson.M{
			"exports.$.file_path": export.FilePath,
			"exports.$.error":     export.Error,
			"exports.$.done":      true,
			"updated_at":          time.Now().UTC(),
		}},
	)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		if _, err := im.GetRun(ctx, runID); err != nil {
			return nil, err
		}
		return nil, ErrExportNotFound
	}
	return im.GetRun(ctx, runID)
}

// ListRunsForOperator returns the runs started by an operator, newest first.
func (im *IngestManager) ListRunsForOperator(ctx context.Context, operatorID primitive.ObjectID) ([]IngestRun, error) {
	cursor, err := im.collection.Find(
		ctx,
		bson.M{"operator_id": operatorID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []IngestRun{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
