// Package queuectl provides a durable, single-node background job queue.
//
// # Overview
//
// queuectl models a durable queue of shell-command jobs with explicit state
// transitions. It separates the data layer (package job) from the storage
// implementation (package store) and defines a small set of interfaces —
// Enqueuer, Claimer, Observer, Reaper, Pruner — that the store package
// implements against a single-file SQLite database shared by multiple OS
// processes.
//
// The package does not mandate a particular process topology beyond what
// Worker and Supervisor provide; a caller may also drive Enqueuer/Claimer
// directly.
//
// # Delivery Semantics
//
// A job is claimed by exactly one worker at a time (state = processing). The
// claim query and the pending-to-processing write share one immediate write
// transaction, so two workers never observe the same job in the processing
// state concurrently.
//
// A worker that is killed (SIGKILL) leaves its claimed job in processing
// indefinitely unless ReapZombieProcessing — exposed as the optional,
// opt-in ReapWorker — or a reset recovers it.
//
// # State Machine
//
//	Pending    -> Processing
//	Processing -> Completed
//	Processing -> Pending   (retry, via Fail, while attempts remain)
//	Processing -> Dead      (via Fail, once attempts are exhausted)
//	Dead       -> Pending   (via dlq-retry, attempts reset to zero)
//
// Completed and Dead are terminal and are not retried except by explicit
// dlq-retry (Dead only) or reset.
//
// # Retry Policy
//
// Each job carries its own MaxRetries and BaseBackoff. On failure, if
// Attempts exceeds MaxRetries the job is dead-lettered; otherwise it is
// rescheduled at now + BaseBackoff**Attempts seconds, clamped to a 24-hour
// ceiling (see ComputeDelay).
//
// # Worker and Supervisor
//
// Worker is a single long-lived OS process: it repeatedly claims one job,
// hands it to an Executor, and applies the retry/DLQ policy, honoring
// shutdown signals and an idle-exit timeout. Supervisor spawns a fixed
// number of Worker processes, forwards signals to them, and aggregates
// their exit status. Workers never communicate directly; all coordination
// happens through the store.
//
// # Concurrency Model
//
// Each OS process is internally single-threaded apart from the brief
// child-process wait inside Executor. No in-process task scheduler is
// required; concurrency across workers comes entirely from running
// multiple OS processes against one store.
package queuectl
