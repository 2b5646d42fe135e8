// This file contains the QueueListManager implementation, which is responsible for interacting with the MongoDB queues collection.
// The QueueListManager struct contains a pointer to the ingestdb.queues MongoDB collection and a logger. It provides methods to set and
// get queue data from the database. Queues are addressed by name, and hold run IDs in arrival order.

// Note that the only valid queues are those in the queueNames slice.
// Queue updates are read-modify-write; the AMQP consumers share one manager, so updates are serialized by a mutex.

package queue

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jr-dreamview/ingest-bulk/internal/log"
	"github.com/jr-dreamview/ingest-bulk/internal/models/ingest"
)

// Custom errors
var (
	// ErrInvalidQueueID is returned when an invalid queue ID is used.
	ErrInvalidQueueID = errors.New("not a valid queue ID")
	// ErrIDAlreadyInQueue is returned when itemID is already in the queue.
	ErrIDAlreadyInQueue = errors.New("ID is already in the queue")
	// ErrIDNotFoundInQueue is returned when itemID is not in the queue.
	ErrIDNotFoundInQueue = errors.New("ID not found in queue")
	// ErrMultipleIDsInQueue is returned when the same ID is found multiple times in the queue.
	ErrMultipleIDsInQueue = errors.New("same ID found multiple times in queue")
	// ErrInvalidOpOnEmptyQueue is returned when an invalid operation occurs on an empty queue.
	ErrInvalidOpOnEmptyQueue = errors.New("invalid operation on empty queue")
)

type QueueListManager struct {
	collection *mongo.Collection
	logger     *log.Logger

	mu         sync.Mutex
	queueNames []string
}

// NewQueueListManager creates a new QueueListManager with the given MongoDB client and logger.
// By default, knows the 'queue_list', 'partition_list' and 'export_list' queues.
func NewQueueListManager(client *mongo.Client, logger *log.Logger, unittest bool) *QueueListManager {
	db := client.Database(ingest.DatabaseName(unittest))
	return &QueueListManager{
		collection: db.Collection("queues"),
		queueNames: []string{QueueList, PartitionList, ExportList},
		logger:     logger,
	}
}

// GetQueueNames returns the list of valid queue names.
func (qlm *QueueListManager) GetQueueNames() []string {
	qlm.mu.Lock()
	defer qlm.mu.Unlock()
	return slices.Clone(qlm.queueNames)
}

// IsValidQueue reports whether queueID names a known queue.
func (qlm *QueueListManager) IsValidQueue(queueID string) bool {
	qlm.mu.Lock()
	defer qlm.mu.Unlock()
	return slices.Contains(qlm.queueNames, queueID)
}

// load reads a queue. A queue that was never written is returned empty.
func (qlm *QueueListManager) load(ctx context.Context, queueID string) (*RunQueue, error) {
	queueList := &RunQueue{ID: queueID, Queue: []primitive.ObjectID{}}
	err := qlm.collection.FindOne(ctx, bson.M{"_id": queueID}).Decode(queueList)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return queueList, nil
}

// store writes the queue, creating it if needed.
func (qlm *QueueListManager) store(ctx context.Context, queueList *RunQueue) error {
	_, err := qlm.collection.UpdateOne(
		ctx,
		bson.M{"_id": queueList.ID},
		bson.M{"$set": queueList},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetQueue returns the run IDs in a queue, oldest first.
func (qlm *QueueListManager) GetQueue(ctx context.Context, queueID string) ([]primitive.ObjectID, error) {
	if !qlm.IsValidQueue(queueID) {
		return nil, ErrInvalidQueueID
	}
	queueList, err := qlm.load(ctx, queueID)
	if err != nil {
		return nil, err
	}
	return queueList.Queue, nil
}

// GetQueuePosition gets the position of itemID in the queue by the queue ID.
// Returns the position of the item in the queue and the total number of items in the queue.
func (qlm *QueueListManager) GetQueuePosition(ctx context.Context, queueID string, itemID primitive.ObjectID) (int, int, error) {
	queue, err := qlm.GetQueue(ctx, queueID)
	if err != nil {
		return 0, 0, err
	}

	position := -1
	for i, id := range queue {
		if id != itemID {
			continue
		}
		if position != -1 {
			return 0, 0, ErrMultipleIDsInQueue
		}
		position = i
	}
	if position == -1 {
		return 0, 0, ErrIDNotFoundInQueue
	}
	return position, len(queue), nil
}

// GetQueueSize returns the number of items in the queue by the queue ID.
func (qlm *QueueListManager) GetQueueSize(ctx context.Context, queueID string) (int, error) {
	queue, err := qlm.GetQueue(ctx, queueID)
	if err != nil {
		return 0, err
	}
	return len(queue), nil
}

// AppendToQueue appends an item's ID to the queue by the queue ID.
// Returns ErrIDAlreadyInQueue if the itemID is already in the queue.
// If the queue does not exist, and queueID is valid, it is created, and the item is added.
func (qlm *QueueListManager) AppendToQueue(ctx context.Context, queueID string, itemID primitive.ObjectID) error {
	qlm.mu.Lock()
	defer qlm.mu.Unlock()

	if !slices.Contains(qlm.queueNames, queueID) {
		qlm.logger.Infof("Invalid queue ID %q", queueID)
		return ErrInvalidQueueID
	}

	queueList, err := qlm.load(ctx, queueID)
	if err != nil {
		return err
	}
	if slices.Contains(queueList.Queue, itemID) {
		qlm.logger.Infof("Attempted to add %s to queue %s, but it is already in the queue", itemID.Hex(), queueID)
		return ErrIDAlreadyInQueue
	}

	queueList.Queue = append(queueList.Queue, itemID)
	return qlm.store(ctx, queueList)
}

// AppendToQueues appends itemID to every named queue, stopping at the first error.
func (qlm *QueueListManager) AppendToQueues(ctx context.Context, itemID primitive.ObjectID, queueIDs ...string) error {
	for _, queueID := range queueIDs {
		if err := qlm.AppendToQueue(ctx, queueID, itemID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFromQueue removes the itemID from the queue by the queue ID.
// Returns ErrIDNotFoundInQueue if the itemID is not in the queue.
func (qlm *QueueListManager) DeleteFromQueue(ctx context.Context, queueID string, itemID primitive.ObjectID) error {
	qlm.mu.Lock()
	defer qlm.mu.Unlock()

	if !slices.Contains(qlm.queueNames, queueID) {
		return ErrInvalidQueueID
	}

	queueList, err := qlm.load(ctx, queueID)
	if err != nil {
		return err
	}
	if len(queueList.Queue) == 0 {
		return ErrInvalidOpOnEmptyQueue
	}

	index := slices.Index(queueList.Queue, itemID)
	if index == -1 {
		return ErrIDNotFoundInQueue
	}

	queueList.Queue = slices.Delete(queueList.Queue, index, index+1)
	return qlm.store(ctx, queueList)
}
