// Package store provides persistence backends for plan execution snapshots.
//
// The planner itself keeps plan state in process memory; configuring a
// PlanStore makes it save a PlanRecord after every execution round so a
// supervisor can inspect in-flight runs or recover the last known state
// after a crash.
//
// Backends:
//   - memory: in-process map, for tests and single-shot runs
//   - file: one JSON file per plan under a directory
//   - sqlite: lightweight serverless storage
//   - redis: shared low-latency storage with optional TTL
//   - postgres: durable relational storage
package store
