// Package observability provides structured logging, the planner event log
// and metrics derived from it. Events are persisted as JSON Lines (JSONL)
// and metrics are calculated on demand.
package observability
