// Package retry provides a single bounded-retry-with-backoff utility shared
// by resource creation and teardown.
package retry
