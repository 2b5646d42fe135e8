// Package ingest contains the implementation of interacting with the MongoDB runs collection.
// The IngestManager struct is responsible for interacting with the MongoDB runs collection.
// The IngestRun, Group and Export structs are used to represent the data stored in the MongoDB database.
// Interaction is primarily by ID, as the ID will (almost always) be unique. BSON is used to interact with the database.
package ingest
