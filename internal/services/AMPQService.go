// This file contains the implementation of AMPQService. This service is responsible for handling the communication
// between the ingest server and an AMPQ message broker, and thus the host plugin and the export workers.
//
// This service expects a rabbitMQ AMPQ 0.9.1 broker to be running at the given url. The service connects to the broker and
// declares the queues used by the pipeline:
//   - 'partition-in': scene manifests published by the host plugin, to be grouped and ingested
//   - 'export-in':    one job per representative node, consumed by the export workers
//   - 'export-out':   export results published by the export workers
//
// A go channel and waitgroup are used to manage the consumers, and the service can be gracefully shutdown by closing the stopChan.
// The consumers are tolerant to connection failures, and will attempt to reconnect every 5 seconds if the connection is lost.
// The connection and the publishing channel are shared by the consumers and the HTTP handlers, and are guarded by mu.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jr-dreamview/ingest-bulk/internal/common"
	"github.com/jr-dreamview/ingest-bulk/internal/log"
	"github.com/jr-dreamview/ingest-bulk/internal/models/ingest"
	"github.com/jr-dreamview/ingest-bulk/internal/models/queue"
)

// Broker queue names
const (
	PartitionIn = "partition-in"
	ExportIn    = "export-in"
	ExportOut   = "export-out"
)

var (
	// ErrMalformedMessage is returned for deliveries that can never be processed. They are dropped instead of requeued.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrNotConnected is returned when publishing without an open channel to the broker.
	ErrNotConnected = errors.New("not connected to the message broker")
)

// SceneIngester ingests a scene manifest under a run ID. Implemented by ClientService.
type SceneIngester interface {
	IngestScene(ctx context.Context, runID, operatorID primitive.ObjectID, manifest *common.SceneManifest) error
}

type AMPQService struct {
	url      string
	runs     RunStore
	queues   QueueStore
	ingester SceneIngester
	logger   *log.Logger

	// reconnect is held while dialing, so that only one consumer reconnects at a time
	reconnect  sync.Mutex
	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel

	// used for reconnection and graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewAMPQService connects to the broker at url and declares the pipeline queues.
// Consumers are started separately with Start.
func NewAMPQService(url string, runs RunStore, queues QueueStore, logger *log.Logger) (*AMPQService, error) {
	service := newAMPQService(url, runs, queues, logger)
	if err := service.connect(); err != nil {
		return nil, err
	}
	return service, nil
}

// newAMPQService returns a service that is not connected yet.
func newAMPQService(url string, runs RunStore, queues QueueStore, logger *log.Logger) *AMPQService {
	return &AMPQService{
		url:      url,
		runs:     runs,
		queues:   queues,
		logger:   log.OrNop(logger),
		stopChan: make(chan struct{}),
	}
}

// connect establishes a connection to the AMPQ message broker and creates the necessary queues
func (s *AMPQService) connect() error {
	timeout := time.Now().Add(time.Minute / 4)
	var (
		conn *amqp.Connection
		err  error
	)

	for time.Now().Before(timeout) {
		conn, err = amqp.Dial(s.url)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}

	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	// Declare queues with 1 hour consumer timeout
	for _, name := range []string{PartitionIn, ExportIn, ExportOut} {
		args := amqp.Table{
			"x-consumer-timeout": int64(time.Hour.Milliseconds()),
		}
		if _, err = ch.QueueDeclare(name, true, false, false, false, args); err != nil {
			conn.Close()
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	s.setConnection(conn, ch)
	return nil
}

// setConnection replaces the shared connection and publishing channel.
func (s *AMPQService) setConnection(conn *amqp.Connection, ch *amqp.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connection, s.channel = conn, ch
}

// current returns the shared connection and publishing channel. Either may be nil before the first connect.
func (s *AMPQService) current() (*amqp.Connection, *amqp.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connection, s.channel
}

// Start starts the consumers for the 'partition-in' and 'export-out' queues.
// Manifests read from 'partition-in' are handed to ingester.
func (s *AMPQService) Start(ingester SceneIngester) {
	s.ingester = ingester
	s.wg.Add(2)
	go s.runConsumer(PartitionIn, s.processPartition)
	go s.runConsumer(ExportOut, s.processExport)
}

// runConsumer runs a consumer for the specified queue and consumption handler
func (s *AMPQService) runConsumer(queueName string, processFunc func(amqp.Delivery) error) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			s.logger.Infof("Stopping %s consumer", queueName)
			return
		default:
			if err := s.consume(queueName, processFunc); err != nil {
				s.logger.Errorf("Error in %s consumer: %v. Reconnecting in 5 seconds...", queueName, err)
				select {
				case <-s.stopChan:
				case <-time.After(5 * time.Second):
				}
			}
		}
	}
}

// consume consumes messages from the specified queue and processes them using the provided function.
// Each delivery is acknowledged exactly once here; processFunc only reports the outcome.
func (s *AMPQService) consume(queueName string, processFunc func(amqp.Delivery) error) error {
	conn, err := s.ensureConnection()
	if err != nil {
		return fmt.Errorf("failed to ensure connection: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	messages, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	s.logger.Infof("Started consuming from %s", queueName)

	for {
		select {
		case <-s.stopChan:
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("consumer channel closed")
			}
			err := processFunc(msg)
			switch {
			case err == nil:
				msg.Ack(false)
			case requeue(err):
				s.logger.Errorf("Error processing message from %s: %v", queueName, err)
				msg.Nack(false, true)
			default:
				s.logger.Errorf("Dropping message from %s: %v", queueName, err)
				msg.Nack(false, false)
			}
		}
	}
}

// requeue reports whether a failed delivery may succeed if tried again.
// An aborted run or a run that is already stored is never retried.
func requeue(err error) bool {
	return !errors.Is(err, ErrMalformedMessage) && !errors.Is(err, ErrInvalidManifest) &&
		!errors.Is(err, ErrRunAborted) && !mongo.IsDuplicateKeyError(err) &&
		!errors.Is(err, ingest.ErrRunNotFound) && !errors.Is(err, ingest.ErrExportNotFound)
}

// ensureConnection ensures that the AMPQ connection is established and returns it
func (s *AMPQService) ensureConnection() (*amqp.Connection, error) {
	s.reconnect.Lock()
	defer s.reconnect.Unlock()

	if conn, _ := s.current(); conn != nil && !conn.IsClosed() {
		return conn, nil
	}

	s.logger.Info("Reconnecting to RabbitMQ...")
	if err := s.connect(); err != nil {
		return nil, err
	}
	conn, _ := s.current()
	return conn, nil
}

// Shutdown shuts down the AMPQ service
func (s *AMPQService) Shutdown() {
	s.logger.Info("Shutting down AMQP service...")
	close(s.stopChan)
	s.wg.Wait()
	if conn, _ := s.current(); conn != nil {
		conn.Close()
	}
	s.logger.Info("AMQP service shut down")
}

// ExportJob is the body of an 'export-in' message.
type ExportJob struct {
	RunID        string `json:"run_id"`
	JobID        string `json:"job_id"`
	ScenePath    string `json:"scene_path"`
	WorkOrder    string `json:"work_order,omitempty"`
	OriginalNode string `json:"original_node"`
	AssetName    string `json:"asset_name"`
	Instances    int    `json:"instances"`
}

// exportJobs builds one job per export of the run.
func exportJobs(run *ingest.IngestRun) []ExportJob {
	jobs := make([]ExportJob, 0, len(run.Exports))
	for _, export := range run.Exports {
		jobs = append(jobs, ExportJob{
			RunID:        run.ID.Hex(),
			JobID:        export.JobID,
			ScenePath:    run.ScenePath,
			WorkOrder:    run.WorkOrder,
			OriginalNode: export.OriginalNode,
			AssetName:    export.AssetName,
			Instances:    export.Instances,
		})
	}
	return jobs
}

// PublishExportJobs publishes one job per representative of the run to the 'export-in' queue.
// Returns ErrNotConnected without an open channel, or an error if any job could not be published.
func (s *AMPQService) PublishExportJobs(ctx context.Context, run *ingest.IngestRun) error {
	_, channel := s.current()
	if channel == nil || channel.IsClosed() {
		return ErrNotConnected
	}

	for _, job := range exportJobs(run) {
		body, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal export job: %w", err)
		}

		err = channel.PublishWithContext(ctx, "", ExportIn, false, false, amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     job.JobID,
			CorrelationId: job.RunID,
			Body:          body,
		})
		if err != nil {
			return fmt.Errorf("failed to publish export job %s: %w", job.JobID, err)
		}
		s.logger.Debugf("Export job %s published for %s", job.JobID, job.OriginalNode)
	}

	s.logger.Infof("Published %d export jobs for run %s", len(run.Exports), run.ID.Hex())
	return nil
}

// PartitionMessage is the body of a 'partition-in' message.
type PartitionMessage struct {
	OperatorID string `json:"operator_id,omitempty"`
	common.SceneManifest
}

// decodePartitionMessage decodes a 'partition-in' body. An empty operator_id decodes to the zero ObjectID.
func decodePartitionMessage(body []byte) (primitive.ObjectID, *common.SceneManifest, error) {
	var msg PartitionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return primitive.NilObjectID, nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.ScenePath == "" || len(msg.Nodes) == 0 {
		return primitive.NilObjectID, nil, fmt.Errorf("%w: manifest has no scene path or nodes", ErrMalformedMessage)
	}

	operatorID := primitive.NilObjectID
	if msg.OperatorID != "" {
		var err error
		operatorID, err = primitive.ObjectIDFromHex(msg.OperatorID)
		if err != nil {
			return primitive.NilObjectID, nil, fmt.Errorf("%w: invalid operator ID: %v", ErrMalformedMessage, err)
		}
	}
	return operatorID, &msg.SceneManifest, nil
}

// deliveryRunID returns the run ID for a 'partition-in' delivery. The host plugin sets the message ID to a run ID, so a
// redelivered manifest is stored under the same run; other message IDs get a new run ID.
func deliveryRunID(d amqp.Delivery) primitive.ObjectID {
	if runID, err := primitive.ObjectIDFromHex(d.MessageId); err == nil && !runID.IsZero() {
		return runID
	}
	return primitive.NewObjectID()
}

// processPartition processes a message from the 'partition-in' queue.
//
// The run is tracked on the 'partition_list' queue while the manifest is grouped and stored.
// The expected message format is:
//
//	{
//	    "operator_id": string (primitive.ObjectID.Hex(), optional),
//	    "scene_path": string,
//	    "work_order": string,
//	    "nodes": [ { "name": string, "class": string, "vertex_count": int, ... , "children": [...] }, ... ]
//	}
func (s *AMPQService) processPartition(d amqp.Delivery) error {
	operatorID, manifest, err := decodePartitionMessage(d.Body)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runID := deliveryRunID(d)
	s.logger.Debugf("Partitioning %s as run %s", manifest.ScenePath, runID.Hex())

	// A redelivery finds the run still listed if the previous attempt never finished.
	err = s.queues.AppendToQueue(ctx, queue.PartitionList, runID)
	if err != nil && !errors.Is(err, queue.ErrIDAlreadyInQueue) {
		return fmt.Errorf("failed to append to %s: %w", queue.PartitionList, err)
	}
	defer func() {
		if err := s.queues.DeleteFromQueue(ctx, queue.PartitionList, runID); err != nil {
			s.logger.Errorf("Error removing %s from %s: %v", runID.Hex(), queue.PartitionList, err)
		}
	}()

	return s.ingester.IngestScene(ctx, runID, operatorID, manifest)
}

// ExportResult is the body of an 'export-out' message.
type ExportResult struct {
	RunID    string `json:"run_id"`
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

// decodeExportResult decodes an 'export-out' body into the run ID and the finished export.
func decodeExportResult(body []byte) (primitive.ObjectID, ingest.Export, error) {
	var result ExportResult
	if err := json.Unmarshal(body, &result); err != nil {
		return primitive.NilObjectID, ingest.Export{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	runID, err := primitive.ObjectIDFromHex(result.RunID)
	if err != nil {
		return primitive.NilObjectID, ingest.Export{}, fmt.Errorf("%w: invalid run ID: %v", ErrMalformedMessage, err)
	}
	if result.JobID == "" {
		return primitive.NilObjectID, ingest.Export{}, fmt.Errorf("%w: missing job ID", ErrMalformedMessage)
	}
	if result.FilePath == "" && result.Error == "" {
		return primitive.NilObjectID, ingest.Export{}, fmt.Errorf("%w: result has neither file path nor error", ErrMalformedMessage)
	}

	return runID, ingest.Export{
		JobID:    result.JobID,
		FilePath: result.FilePath,
		Error:    result.Error,
		Done:     true,
	}, nil
}

// processExport processes a message from the 'export-out' queue.
//
// The result is recorded on the run. Once no export is pending, the run is marked complete (or failed, if any
// export reported an error) and removed from the 'export_list' and 'queue_list' queues. Results for a run that is not
// exporting, such as an aborted one, are recorded and nothing else.
// The expected message format is:
//
//	{
//	    "run_id": string (primitive.ObjectID.Hex()),
//	    "job_id": string,
//	    "file_path": string,
//	    "error": string
//	}
func (s *AMPQService) processExport(d amqp.Delivery) error {
	runID, export, err := decodeExportResult(d.Body)
	if err != nil {
		return err
	}

	ctx := context.Background()
	run, err := s.runs.RecordExport(ctx, runID, export)
	if err != nil {
		return fmt.Errorf("failed to record export %s: %w", export.JobID, err)
	}
	if export.Error != "" {
		s.logger.Errorf("Export %s of run %s failed: %s", export.JobID, runID.Hex(), export.Error)
	}

	if run.Status != ingest.StatusExporting {
		s.logger.Infof("Run %s is %s, export %s recorded only", runID.Hex(), ingest.StatusName(run.Status), export.JobID)
		return nil
	}
	if run.Pending() > 0 {
		return nil
	}

	status := ingest.StatusComplete
	if len(run.Failed()) > 0 {
		status = ingest.StatusFailed
	}
	if err := s.runs.SetStatus(ctx, runID, status); err != nil {
		return fmt.Errorf("failed to set run status: %w", err)
	}

	for _, name := range []string{queue.ExportList, queue.QueueList} {
		if err := s.queues.DeleteFromQueue(ctx, name, runID); err != nil {
			s.logger.Errorf("Error removing %s from %s: %v", runID.Hex(), name, err)
		}
	}

	s.logger.Infof("Run %s finished: %s", runID.Hex(), ingest.StatusName(status))
	return nil
}
