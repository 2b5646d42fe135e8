// This file contains the QueueList struct and its members
// QueueList is used to represent a list of runs waiting in a pipeline stage, and is used for reporting ingest progress.

package queue

import "go.mongodb.org/mongo-driver/bson/primitive"

// Queue names
const (
	// QueueList holds every run that has not finished.
	QueueList = "queue_list"
	// PartitionList holds runs whose manifest is being partitioned.
	PartitionList = "partition_list"
	// ExportList holds runs with export jobs still out.
	ExportList = "export_list"
)

// RunQueue represents a list of run IDs in a queue.
type RunQueue struct {
	ID    string               `bson:"_id"`
	Queue []primitive.ObjectID `bson:"queue"`
}
