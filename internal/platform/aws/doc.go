// Package aws wraps the EC2 API behind narrow, mockable interfaces and
// exposes the create/describe/delete operations the provisioning core
// consumes. Everything here is a thin adapter; ordering, retries and
// rollback live in internal/provisioning.
package aws
