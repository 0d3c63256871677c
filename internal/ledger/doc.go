// Package ledger persists the mapping from logical resource names to
// provider handles. Every create call that succeeds is recorded here before
// the orchestrator moves on, which is what makes partial runs resumable and
// rollback possible after a crash.
package ledger
