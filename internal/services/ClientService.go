// This file contains the implementation of ClientService, the handler behind the HTTP API. It partitions scene
// manifests, records ingest runs and their export jobs, and answers operators' questions about their runs.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jr-dreamview/ingest-bulk/internal/common"
	"github.com/jr-dreamview/ingest-bulk/internal/config"
	"github.com/jr-dreamview/ingest-bulk/internal/grouping"
	"github.com/jr-dreamview/ingest-bulk/internal/log"
	"github.com/jr-dreamview/ingest-bulk/internal/models/ingest"
	"github.com/jr-dreamview/ingest-bulk/internal/models/queue"
	"github.com/jr-dreamview/ingest-bulk/internal/models/user"
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

var (
	// ErrInvalidManifest is returned when a manifest holds a node that is neither a clean group nor a clean geometry node.
	ErrInvalidManifest = errors.New("invalid scene manifest")
	// ErrRunAborted is returned when a stored run could not be handed to the export workers. The run is marked failed
	// and taken off the progress queues.
	ErrRunAborted = errors.New("ingest run aborted")
)

type ClientService struct {
	publisher   ExportPublisher
	runs        RunStore
	operators   OperatorStore
	queues      QueueStore
	partitioner *grouping.Partitioner
	include     scenegraph.Rules
	logger      *log.Logger
}

func NewClientService(runs RunStore, publisher ExportPublisher, operators OperatorStore, queues QueueStore,
	rules config.Rules, logger *log.Logger) *ClientService {
	opts := rules.Grouping
	opts.Logger = logger
	return &ClientService{
		publisher:   publisher,
		runs:        runs,
		operators:   operators,
		queues:      queues,
		partitioner: grouping.NewPartitioner(opts),
		include:     rules.Include,
		logger:      logger,
	}
}

// verifyUserAccess checks if the given user has access to the given run.
// Returns nil if the user has access, error if the user does not have access or an error occurred.
func (s *ClientService) verifyUserAccess(ctx context.Context, userID, runID primitive.ObjectID) error {
	authorized, err := s.operators.UserHasRunAccess(ctx, userID, runID)
	if err != nil {
		return err
	}
	if !authorized {
		return user.ErrUserNoAccess
	}
	return nil
}

// LoginUser checks if the given username and password are correct and returns the user's ID, nil if successful.
// Returns "", error if the username or password is incorrect.
func (s *ClientService) LoginUser(ctx context.Context, username, password string) (string, error) {
	u, err := s.operators.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if err := u.CheckPassword(password); err != nil {
		return "", err
	}
	return u.ID.Hex(), nil
}

// RegisterUser generates a new user document with the given username and password, and inserts it into the database.
// Returns nil if successful, error if the username is already taken or an error occurred while inserting the user.
func (s *ClientService) RegisterUser(ctx context.Context, username, password string) error {
	_, err := s.operators.GenerateUser(ctx, username, password)
	return err
}

// UpdatePassword changes the password of a user after checking the old one.
func (s *ClientService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	return s.operators.UpdatePassword(ctx, userID, oldPassword, newPassword)
}

// UpdateUsername renames a user after checking their password.
func (s *ClientService) UpdateUsername(ctx context.Context, userID primitive.ObjectID, password, newUsername string) error {
	return s.operators.UpdateUsername(ctx, userID, password, newUsername)
}

// partition validates the manifest and groups its nodes.
func (s *ClientService) partition(manifest *common.SceneManifest) (*grouping.Result, []grouping.NearMiss, error) {
	roots := manifest.Roots()
	for _, root := range roots {
		if err := scenegraph.Validate(root); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
	}

	result := s.partitioner.PartitionScene(roots, s.include)
	return result, s.partitioner.NearMisses(result), nil
}

// PartitionPreview is the grouping of a manifest, without anything stored or exported.
type PartitionPreview struct {
	Groups          map[string][]string `json:"groups"`
	Leftover        []string            `json:"leftover"`
	Representatives []string            `json:"representatives"`
	NearMisses      []grouping.NearMiss `json:"near_misses"`
	Report          string              `json:"report"`
}

// PreviewPartition groups the nodes of a manifest and returns what an ingest would export.
// Nothing is stored; the manifest does not need to belong to a run.
func (s *ClientService) PreviewPartition(manifest *common.SceneManifest) (*PartitionPreview, error) {
	result, nearMisses, err := s.partition(manifest)
	if err != nil {
		return nil, err
	}

	preview := &PartitionPreview{
		Groups:          map[string][]string{},
		Leftover:        []string{},
		Representatives: []string{},
		NearMisses:      nearMisses,
		Report:          result.String(),
	}
	for _, key := range result.Keys() {
		for _, n := range result.Members(key) {
			preview.Groups[key] = append(preview.Groups[key], n.Name())
		}
	}
	for _, n := range result.SortedLeftover() {
		preview.Leftover = append(preview.Leftover, n.Name())
	}
	for _, rep := range result.Representatives() {
		preview.Representatives = append(preview.Representatives, rep.Node.Name())
	}
	return preview, nil
}

// IngestScene partitions a manifest, stores the run under runID and publishes one export job per representative.
// A zero operatorID records a run that no operator owns (submitted straight from the host plugin).
//
// Once the run is stored, any later failure aborts it: the run is marked failed, removed from the progress queues and
// the returned error wraps ErrRunAborted.
func (s *ClientService) IngestScene(ctx context.Context, runID, operatorID primitive.ObjectID, manifest *common.SceneManifest) error {
	result, nearMisses, err := s.partition(manifest)
	if err != nil {
		return err
	}

	run := ingest.NewIngestRun(operatorID, manifest.ScenePath, manifest.WorkOrder, result, nearMisses)
	run.ID = runID
	if _, err := s.runs.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}

	if !operatorID.IsZero() {
		if err := s.operators.AddRun(ctx, operatorID, runID); err != nil {
			return s.abort(ctx, runID, fmt.Errorf("failed to add run to operator: %w", err))
		}
	}

	if len(run.Exports) == 0 {
		s.logger.Infof("Run %s has nothing to export", runID.Hex())
		if err := s.runs.SetStatus(ctx, runID, ingest.StatusComplete); err != nil {
			return s.abort(ctx, runID, err)
		}
		return nil
	}

	if err := s.queues.AppendToQueues(ctx, runID, queue.QueueList, queue.ExportList); err != nil {
		return s.abort(ctx, runID, fmt.Errorf("failed to queue run: %w", err))
	}
	// Exporting before publishing, so that no worker result can reach a run that is not yet exporting.
	if err := s.runs.SetStatus(ctx, runID, ingest.StatusExporting); err != nil {
		return s.abort(ctx, runID, err)
	}
	if err := s.publisher.PublishExportJobs(ctx, run); err != nil {
		return s.abort(ctx, runID, fmt.Errorf("failed to publish export jobs: %w", err))
	}

	s.logger.Infof("Run %s: %d groups, %d leftovers, %d export jobs", runID.Hex(), len(run.Groups), len(run.Leftover), len(run.Exports))
	return nil
}

// abort marks a stored run as failed and takes it off the 'queue_list' and 'export_list' queues.
func (s *ClientService) abort(ctx context.Context, runID primitive.ObjectID, cause error) error {
	s.logger.Errorf("Aborting run %s: %v", runID.Hex(), cause)
	if err := s.runs.SetStatus(ctx, runID, ingest.StatusFailed); err != nil {
		s.logger.Errorf("Failed to mark run %s as failed: %v", runID.Hex(), err)
	}
	for _, name := range []string{queue.ExportList, queue.QueueList} {
		err := s.queues.DeleteFromQueue(ctx, name, runID)
		if err != nil && !errors.Is(err, queue.ErrIDNotFoundInQueue) && !errors.Is(err, queue.ErrInvalidOpOnEmptyQueue) {
			s.logger.Errorf("Error removing %s from %s: %v", runID.Hex(), name, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrRunAborted, cause)
}

// GetRun returns a run the user has access to.
func (s *ClientService) GetRun(ctx context.Context, userID, runID primitive.ObjectID) (*ingest.IngestRun, error) {
	if err := s.verifyUserAccess(ctx, userID, runID); err != nil {
		return nil, err
	}
	return s.runs.GetRun(ctx, runID)
}

// GetRunReport returns the audit dump of a run the user has access to.
func (s *ClientService) GetRunReport(ctx context.Context, userID, runID primitive.ObjectID) (string, error) {
	run, err := s.GetRun(ctx, userID, runID)
	if err != nil {
		return "", err
	}
	return run.Report(), nil
}

// RunSummary is a short view of a run for the history listing.
type RunSummary struct {
	ID        string    `json:"id"`
	ScenePath string    `json:"scene_path"`
	Status    string    `json:"status"`
	Groups    int       `json:"groups"`
	Exports   int       `json:"exports"`
	Pending   int       `json:"pending"`
	CreatedAt time.Time `json:"created_at"`
}

// GetOperatorHistory returns the runs started by the user, newest first.
func (s *ClientService) GetOperatorHistory(ctx context.Context, userID primitive.ObjectID) ([]RunSummary, error) {
	runs, err := s.runs.ListRunsForOperator(ctx, userID)
	if err != nil {
		s.logger.Info("Failed to get operator history:", err.Error())
		return nil, err
	}

	history := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		history = append(history, RunSummary{
			ID:        run.ID.Hex(),
			ScenePath: run.ScenePath,
			Status:    ingest.StatusName(run.Status),
			Groups:    len(run.Groups),
			Exports:   len(run.Exports),
			Pending:   run.Pending(),
			CreatedAt: run.CreatedAt,
		})
	}
	return history, nil
}

// GetQueuePosition returns the position of a run in a queue and the queue size.
func (s *ClientService) GetQueuePosition(ctx context.Context, userID, runID primitive.ObjectID, queueID string) (int, int, error) {
	if err := s.verifyUserAccess(ctx, userID, runID); err != nil {
		return 0, 0, err
	}
	return s.queues.GetQueuePosition(ctx, queueID, runID)
}
