package services

import (
	"context"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jr-dreamview/ingest-bulk/internal/models/ingest"
	"github.com/jr-dreamview/ingest-bulk/internal/models/queue"
	"github.com/jr-dreamview/ingest-bulk/internal/models/user"
)

// memoryRuns is an in-memory RunStore.
type memoryRuns struct {
	mu   sync.Mutex
	runs map[primitive.ObjectID]ingest.IngestRun
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: map[primitive.ObjectID]ingest.IngestRun{}}
}

func (m *memoryRuns) CreateRun(_ context.Context, run *ingest.IngestRun) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	stored := *run
	stored.Exports = slices.Clone(run.Exports)
	m.runs[run.ID] = stored
	return run.ID, nil
}

func (m *memoryRuns) GetRun(_ context.Context, runID primitive.ObjectID) (*ingest.IngestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, ingest.ErrRunNotFound
	}
	run.Exports = slices.Clone(run.Exports)
	return &run, nil
}

func (m *memoryRuns) SetStatus(_ context.Context, runID primitive.ObjectID, status int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return ingest.ErrRunNotFound
	}
	run.Status = status
	m.runs[runID] = run
	return nil
}

func (m *memoryRuns) RecordExport(ctx context.Context, runID primitive.ObjectID, export ingest.Export) (*ingest.IngestRun, error) {
	m.mu.Lock()
	run, ok := m.runs[runID]
	if !ok {
		m.mu.Unlock()
		return nil, ingest.ErrRunNotFound
	}
	i := slices.IndexFunc(run.Exports, func(e ingest.Export) bool { return e.JobID == export.JobID })
	if i < 0 {
		m.mu.Unlock()
		return nil, ingest.ErrExportNotFound
	}
	run.Exports[i].FilePath = export.FilePath
	run.Exports[i].Error = export.Error
	run.Exports[i].Done = true
	m.mu.Unlock()
	return m.GetRun(ctx, runID)
}

func (m *memoryRuns) ListRunsForOperator(_ context.Context, operatorID primitive.ObjectID) ([]ingest.IngestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := []ingest.IngestRun{}
	for _, run := range m.runs {
		if run.OperatorID == operatorID {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

func (m *memoryRuns) status(runID primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID].Status
}

// memoryQueues is an in-memory QueueStore.
type memoryQueues struct {
	mu     sync.Mutex
	queues map[string][]primitive.ObjectID
}

func newMemoryQueues() *memoryQueues {
	return &memoryQueues{queues: map[string][]primitive.ObjectID{}}
}

func (m *memoryQueues) AppendToQueue(_ context.Context, queueID string, itemID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.queues[queueID], itemID) {
		return queue.ErrIDAlreadyInQueue
	}
	m.queues[queueID] = append(m.queues[queueID], itemID)
	return nil
}

func (m *memoryQueues) AppendToQueues(ctx context.Context, itemID primitive.ObjectID, queueIDs ...string) error {
	for _, queueID := range queueIDs {
		if err := m.AppendToQueue(ctx, queueID, itemID); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryQueues) DeleteFromQueue(_ context.Context, queueID string, itemID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queues[queueID]) == 0 {
		return queue.ErrInvalidOpOnEmptyQueue
	}
	i := slices.Index(m.queues[queueID], itemID)
	if i < 0 {
		return queue.ErrIDNotFoundInQueue
	}
	m.queues[queueID] = slices.Delete(m.queues[queueID], i, i+1)
	return nil
}

func (m *memoryQueues) GetQueuePosition(_ context.Context, queueID string, itemID primitive.ObjectID) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.queues[queueID], itemID)
	if i < 0 {
		return 0, 0, queue.ErrIDNotFoundInQueue
	}
	return i, len(m.queues[queueID]), nil
}

func (m *memoryQueues) items(queueID string) []primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.queues[queueID])
}

// memoryOperators is an OperatorStore that only tracks run ownership.
type memoryOperators struct {
	addRunErr error
	runs      map[primitive.ObjectID][]primitive.ObjectID
}

func (m *memoryOperators) GenerateUser(context.Context, string, string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (m *memoryOperators) GetUserByUsername(context.Context, string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (m *memoryOperators) AddRun(_ context.Context, userID, runID primitive.ObjectID) error {
	if m.addRunErr != nil {
		return m.addRunErr
	}
	if m.runs == nil {
		m.runs = map[primitive.ObjectID][]primitive.ObjectID{}
	}
	m.runs[userID] = append(m.runs[userID], runID)
	return nil
}

func (m *memoryOperators) UserHasRunAccess(_ context.Context, userID, runID primitive.ObjectID) (bool, error) {
	return slices.Contains(m.runs[userID], runID), nil
}

func (m *memoryOperators) UpdatePassword(context.Context, primitive.ObjectID, string, string) error {
	return nil
}

func (m *memoryOperators) UpdateUsername(context.Context, primitive.ObjectID, string, string) error {
	return nil
}

// recordingPublisher is an ExportPublisher that keeps the runs it was given, or fails with err.
type recordingPublisher struct {
	err       error
	published []*ingest.IngestRun
}

func (p *recordingPublisher) PublishExportJobs(_ context.Context, run *ingest.IngestRun) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, run)
	return nil
}
