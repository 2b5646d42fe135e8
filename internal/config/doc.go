// Package config loads the settings of the ingest service.
//
// Connection settings and secrets come from the environment, optionally seeded from a .env file (see Load).
// What counts as an asset and how assets are grouped comes from a YAML rules file (see LoadRules), so pipeline TDs can
// tune a run without a new build.
package config
