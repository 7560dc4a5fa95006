// Package store provides a bun-based SQLite storage implementation of
// the queuectl repository interfaces (Enqueuer, Claimer, Observer,
// Reaper, Pruner).
//
// # Overview
//
// The store backend provides:
//
//   - durable persistence of jobs in a single SQLite file
//   - an immediate-write transaction for claim_one, complete, fail, and
//     dlq_retry so two processes never observe the same row mid-claim
//   - WAL journaling so read-only queries (Get, List, StatusSummary,
//     Metrics) never block a concurrent claim
//
// # Concurrency Model
//
// DB holds two *bun.DB handles opened against the same file: a write
// handle limited to one connection, whose DSN carries _txlock=immediate
// so BeginTx acquires SQLite's RESERVED lock at BEGIN, and a read handle
// allowing several concurrent connections for ordinary deferred reads.
//
// ClaimOne and Fail run their select-then-update inside one write-handle
// transaction; Complete, DLQRetry, and ReapZombieProcessing are single
// guarded UPDATE statements and need no explicit transaction (DLQRetry
// then reads through the read handle only to tell ErrNotFound from
// ErrNotDead).
//
// # Schema
//
// The backend expects a "jobs" table corresponding to jobModel. Open
// creates, inside a single transaction:
//
//   - the jobs table (if not exists)
//   - index (state, available_at) — claim ordering
//   - index (state) — list/status/metrics filtering
//   - index (state, updated_at) — prune filtering
//
// Open is idempotent and does not perform destructive migrations.
package store
