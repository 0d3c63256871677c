package provisioning

import "fmt"

// CreationError reports which node's create failed terminally. The
// orchestrator wraps the underlying provider error so callers can still
// inspect it with errors.As.
type CreationError struct {
	Node string
	Err  error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create %s: %v", e.Node, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}
