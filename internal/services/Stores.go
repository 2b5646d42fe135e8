// This file contains the storage interfaces the services depend on. The MongoDB managers in internal/models implement
// them; tests substitute in-memory versions.

package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jr-dreamview/ingest-bulk/internal/models/ingest"
	"github.com/jr-dreamview/ingest-bulk/internal/models/queue"
	"github.com/jr-dreamview/ingest-bulk/internal/models/user"
)

// RunStore stores ingest runs. Implemented by ingest.IngestManager.
type RunStore interface {
	CreateRun(ctx context.Context, run *ingest.IngestRun) (primitive.ObjectID, error)
	GetRun(ctx context.Context, runID primitive.ObjectID) (*ingest.IngestRun, error)
	SetStatus(ctx context.Context, runID primitive.ObjectID, status int) error
	RecordExport(ctx context.Context, runID primitive.ObjectID, export ingest.Export) (*ingest.IngestRun, error)
	ListRunsForOperator(ctx context.Context, operatorID primitive.ObjectID) ([]ingest.IngestRun, error)
}

// OperatorStore stores operator accounts. Implemented by user.UserManager.
type OperatorStore interface {
	GenerateUser(ctx context.Context, username, password string) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	AddRun(ctx context.Context, userID, runID primitive.ObjectID) error
	UserHasRunAccess(ctx context.Context, userID, runID primitive.ObjectID) (bool, error)
	UpdatePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error
	UpdateUsername(ctx context.Context, userID primitive.ObjectID, userPassword, newUsername string) error
}

// QueueStore tracks runs on the progress queues. Implemented by queue.QueueListManager.
type QueueStore interface {
	AppendToQueue(ctx context.Context, queueID string, itemID primitive.ObjectID) error
	AppendToQueues(ctx context.Context, itemID primitive.ObjectID, queueIDs ...string) error
	DeleteFromQueue(ctx context.Context, queueID string, itemID primitive.ObjectID) error
	GetQueuePosition(ctx context.Context, queueID string, itemID primitive.ObjectID) (int, int, error)
}

// ExportPublisher hands the export jobs of a run to the export workers. Implemented by AMPQService.
type ExportPublisher interface {
	PublishExportJobs(ctx context.Context, run *ingest.IngestRun) error
}

var (
	_ RunStore        = (*ingest.IngestManager)(nil)
	_ OperatorStore   = (*user.UserManager)(nil)
	_ QueueStore      = (*queue.QueueListManager)(nil)
	_ ExportPublisher = (*AMPQService)(nil)
)
