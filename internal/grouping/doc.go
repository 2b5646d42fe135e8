// Package grouping partitions scene nodes into families so that only one representative of each family is exported.
//
// Two nodes belong to the same family when they are interchangeable (same geometry counts and materials, compared
// recursively for groups) and their names differ by exactly one version-like token:
//
//	AE34_002_lilly_01       AE34_002_lilly_02        -> AE34_002_lilly
//	AE34_002_garden_lamp    AE34_002_garden_lamp001  -> AE34_002_garden_lamp
//
// The Partitioner sweeps the candidate list once, comparing every node against every later node, and folds matches into
// groups keyed by the cleaned name. Nodes that match nothing end up in the leftover bucket and are exported one by one.
//
// Everything in this package is synchronous and free of I/O. The same input always produces the same Result.
package grouping
