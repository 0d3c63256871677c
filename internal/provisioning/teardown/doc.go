// Package teardown deletes everything a previous run recorded in the
// ledger, in reverse dependency order. It needs no graph and no provider
// listing; the ledger alone drives it, so a teardown can run against the
// state file of any earlier run.
package teardown
