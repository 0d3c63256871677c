// Package naming provides consistent naming functions for network
// resources.
//
// Resource names follow the pattern {cluster}-{type} for singletons
// (VPC, gateways, route tables) and {cluster}-{type}-{index} for
// per-subnet and per-node resources. Logical names double as ledger
// keys, so they must be stable across runs.
package naming
