// Package queue contains the implementation of progress queues of ingest runs in the MongoDB database.
// The QueueListManager struct is responsible for interacting with the MongoDB queues collection.
// The RunQueue struct is used to represent the runs waiting in one pipeline stage, and is used for reporting ingest progress.
// Queue names are strings, queue items are run IDs.
package queue
