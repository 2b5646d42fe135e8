// Package services contains the implementation of all services used by the ingest server.
//
// The services are responsible for interacting with the database and the broker, and performing anything that is not strictly
// HTTP-related. The services are injected into the web server, and are used to handle requests dispatched by it.
//
// Current services include:
//   - AMPQService:
//     Is a ampq 0.9.1 broker-agnostic handler that consumes scene manifests from the host plugin, publishes export jobs
//     to the export workers, and records their results
//   - ClientService:
//     Is the main handler for dispatched http requests to the client. It is responsible for handling requests to the client,
//     such as previewing a partition, ingesting a scene, getting the user's runs, and much more
package services
