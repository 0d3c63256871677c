package provisioning

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/metrics"
	"github.com/imamik/vpcforge/internal/platform/aws"
	"github.com/imamik/vpcforge/internal/util/retry"
)

const phaseProvision = "provision"

// defaultWorkers bounds how many independent nodes of one wave run at once.
const defaultWorkers = 4

// Orchestrator executes a resource graph: waves of independent nodes run
// concurrently, every successful create is recorded in the ledger before
// dependents start, and a terminal failure rolls the whole run back.
type Orchestrator struct {
	workers      int
	retryOptions []retry.Option
	retryable    func(error) bool
	unwind       func(ctx *Context) error
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithWorkers sets the per-wave concurrency limit.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.workers = n
	}
}

// WithRetryOptions sets the backoff options applied to every create call.
func WithRetryOptions(opts ...retry.Option) OrchestratorOption {
	return func(o *Orchestrator) {
		o.retryOptions = opts
	}
}

// WithRetryable sets the classifier deciding which create errors are
// retried. Defaults to the provider's transient-error classifier.
func WithRetryable(f func(error) bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.retryable = f
	}
}

// WithUnwind sets the rollback invoked when a create fails terminally.
// Wired to the teardown provisioner by the CLI handlers.
func WithUnwind(f func(ctx *Context) error) OrchestratorOption {
	return func(o *Orchestrator) {
		o.unwind = f
	}
}

// NewOrchestrator creates an orchestrator with defaults suitable for
// production use.
func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		workers:   defaultWorkers,
		retryable: aws.IsTransient,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the graph. Nodes already present in the ledger are adopted
// without issuing create calls, which makes re-running after a partial
// failure pick up exactly where the previous run stopped.
//
// On terminal failure the configured unwind runs over the whole ledger and
// the returned error carries the failing node via CreationError.
func (o *Orchestrator) Run(ctx *Context, g *Graph) error {
	waves, err := g.Waves()
	if err != nil {
		return fmt.Errorf("invalid resource graph: %w", err)
	}

	start := time.Now()
	LogPhaseStart(ctx.Observer, phaseProvision)

	completed := 0
	for _, wave := range waves {
		if err := ctx.Err(); err != nil {
			return o.rollback(ctx, fmt.Errorf("provisioning cancelled: %w", err))
		}

		eg := new(errgroup.Group)
		eg.SetLimit(o.workers)
		for _, node := range wave {
			node := node
			eg.Go(func() error {
				return o.provision(ctx, node)
			})
		}
		if err := eg.Wait(); err != nil {
			LogPhaseFailed(ctx.Observer, phaseProvision, err)
			return o.rollback(ctx, err)
		}

		completed += len(wave)
		ctx.Observer.Progress(phaseProvision, completed, g.Len())
	}

	LogPhaseComplete(ctx.Observer, phaseProvision, time.Since(start))
	return nil
}

// provision runs a single node to the created state.
func (o *Orchestrator) provision(ctx *Context, node *Node) error {
	if rec, ok := ctx.Ledger.Lookup(node.LogicalName); ok {
		if node.Adopt != nil {
			node.Adopt(ctx, rec)
		}
		node.state = NodeCreated
		LogResourceExists(ctx.Observer, phaseProvision, string(node.Kind), node.LogicalName, rec.Handle)
		return nil
	}

	node.state = NodeCreating
	LogResourceCreating(ctx.Observer, phaseProvision, string(node.Kind), node.LogicalName)

	// Environment-derived retry settings come first so explicit options
	// passed to the orchestrator still override them.
	var res Result
	retryOpts := append([]retry.Option{
		retry.WithMaxRetries(ctx.Timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(ctx.Timeouts.RetryInitialDelay),
		retry.WithRetryable(o.retryable),
	}, o.retryOptions...)
	err := retry.WithExponentialBackoff(ctx, func() error {
		r, err := node.Create(ctx)
		if err != nil {
			return err
		}
		res = r
		return nil
	}, retryOpts...)
	if err != nil {
		node.state = NodeFailed
		metrics.CreateFailures.WithLabelValues(string(node.Kind)).Inc()
		ctx.Observer.Event(Event{
			Type:     EventResourceFailed,
			Phase:    phaseProvision,
			Resource: node.LogicalName,
			Message:  fmt.Sprintf("creation failed: %v", err),
			Fields:   map[string]string{"kind": string(node.Kind)},
		})
		return &CreationError{Node: node.LogicalName, Err: err}
	}

	// The record must be durable before any dependent is allowed to
	// start, otherwise a crash here would orphan the resource.
	if err := ctx.Ledger.Record(ledger.Record{
		LogicalName: node.LogicalName,
		Kind:        node.Kind,
		Handle:      res.Handle,
		Attrs:       res.Attrs,
	}); err != nil {
		node.state = NodeFailed
		return &CreationError{
			Node: node.LogicalName,
			Err:  fmt.Errorf("created as %s but recording it failed: %w", res.Handle, err),
		}
	}

	node.state = NodeCreated
	metrics.ResourcesCreated.WithLabelValues(string(node.Kind)).Inc()
	LogResourceCreated(ctx.Observer, phaseProvision, string(node.Kind), node.LogicalName, res.Handle)
	return nil
}

// rollback unwinds everything the run (and any previous partial run) has
// recorded, then returns the original failure. The unwind gets a detached
// context so rollback still completes when the run itself was cancelled.
func (o *Orchestrator) rollback(ctx *Context, cause error) error {
	if o.unwind == nil {
		return cause
	}

	metrics.Unwinds.Inc()
	ctx.Observer.Printf("[%s] rolling back after failure: %v", phaseProvision, cause)

	uctx := *ctx
	uctx.Context = context.WithoutCancel(ctx.Context)
	if uerr := o.unwind(&uctx); uerr != nil {
		return fmt.Errorf("%w (rollback also failed: %v)", cause, uerr)
	}
	return cause
}
