// Package provisioning contains the dependency-graph core that turns a
// subnet plan into live network resources.
//
// The domain is organized into focused pieces:
//   - graph.go: resource nodes, dependency edges, wave ordering
//   - orchestrator.go: graph execution with retries, idempotent re-runs
//     and rollback on failure
//   - template.go: the standard topology graph built from configuration
//   - teardown/: ledger-driven deletion in reverse dependency order
//
// This root package also holds the shared Context, State and Observer
// types used across subpackages.
package provisioning
