package teardown

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/metrics"
	"github.com/imamik/vpcforge/internal/platform/aws"
	"github.com/imamik/vpcforge/internal/provisioning"
	"github.com/imamik/vpcforge/internal/util/retry"
)

const phaseTeardown = "teardown"

// defaultMaxPasses bounds how often deletion of the full remaining set is
// attempted. Dependency violations (asynchronous NAT gateway deletion,
// detachments still settling) clear up between passes.
const defaultMaxPasses = 5

// deleteOrder ranks resource kinds so dependents go before the resources
// they depend on. Rules are revoked before groups are deleted, which is
// what makes mutually referencing security groups deletable at all.
var deleteOrder = map[ledger.Kind]int{
	ledger.KindInstance:          0,
	ledger.KindSecurityGroupRule: 1,
	ledger.KindSecurityGroup:     2,
	ledger.KindNATGateway:        3,
	ledger.KindElasticIP:         4,
	ledger.KindRouteAssociation:  5,
	ledger.KindRoute:             6,
	ledger.KindRouteTable:        7,
	ledger.KindSubnet:            8,
	ledger.KindGatewayAttachment: 9,
	ledger.KindInternetGateway:   10,
	ledger.KindVPC:               11,
}

// IncompleteError reports the resources still present after all passes.
type IncompleteError struct {
	Remaining []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("teardown incomplete, %d resources remain: %s",
		len(e.Remaining), strings.Join(e.Remaining, ", "))
}

// Provisioner handles network destruction.
type Provisioner struct {
	maxPasses    int
	retryOptions []retry.Option
}

// Option configures a teardown Provisioner.
type Option func(*Provisioner)

// WithMaxPasses sets how many full passes over the remaining resources are
// attempted before giving up.
func WithMaxPasses(n int) Option {
	return func(p *Provisioner) {
		p.maxPasses = n
	}
}

// WithRetryOptions sets the backoff options applied to every delete call.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(p *Provisioner) {
		p.retryOptions = opts
	}
}

// NewProvisioner creates a new teardown provisioner.
func NewProvisioner(opts ...Option) *Provisioner {
	p := &Provisioner{maxPasses: defaultMaxPasses}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision deletes every ledger resource in reverse dependency order.
//
// A resource that is already gone counts as deleted. A resource refused
// because dependents still exist stays in the ledger and is retried on the
// next pass. Each confirmed deletion removes the ledger entry immediately,
// so an interrupted teardown resumes where it stopped. An empty ledger is
// a successful no-op.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if ctx.Ledger.Empty() {
		ctx.Observer.Printf("[%s] ledger is empty, nothing to delete", phaseTeardown)
		return nil
	}

	start := time.Now()
	provisioning.LogPhaseStart(ctx.Observer, phaseTeardown)

	for pass := 1; pass <= p.maxPasses; pass++ {
		metrics.TeardownPasses.Inc()

		records := ordered(ctx.Ledger.All())
		blocked := 0
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("teardown cancelled: %w", err)
			}

			err := p.delete(ctx, rec)
			if err != nil {
				if aws.IsDependencyViolation(err) {
					blocked++
					provisioning.LogResourceBlocked(ctx.Observer, phaseTeardown, string(rec.Kind), rec.LogicalName)
					continue
				}
				provisioning.LogPhaseFailed(ctx.Observer, phaseTeardown, err)
				return fmt.Errorf("failed to delete %s: %w", rec.LogicalName, err)
			}

			if err := ctx.Ledger.Remove(rec.LogicalName); err != nil {
				return fmt.Errorf("failed to drop %s from ledger: %w", rec.LogicalName, err)
			}
			metrics.ResourcesDeleted.WithLabelValues(string(rec.Kind)).Inc()
			provisioning.LogResourceDeleted(ctx.Observer, phaseTeardown, string(rec.Kind), rec.LogicalName)
		}

		if ctx.Ledger.Empty() {
			provisioning.LogPhaseComplete(ctx.Observer, phaseTeardown, time.Since(start))
			return nil
		}
		ctx.Observer.Printf("[%s] pass %d/%d done, %d resources still blocked by dependents",
			phaseTeardown, pass, p.maxPasses, blocked)
	}

	var remaining []string
	for _, rec := range ordered(ctx.Ledger.All()) {
		remaining = append(remaining, rec.LogicalName)
	}
	err := &IncompleteError{Remaining: remaining}
	provisioning.LogPhaseFailed(ctx.Observer, phaseTeardown, err)
	return err
}

// delete removes one resource, treating an already-missing resource as
// success. Transient provider errors are retried in place within the
// configured delete timeout; dependency violations are returned to the
// caller for the next pass.
func (p *Provisioner) delete(ctx *provisioning.Context, rec ledger.Record) error {
	provisioning.LogResourceDeleting(ctx.Observer, phaseTeardown, string(rec.Kind), rec.LogicalName)

	dctx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Delete)
	defer cancel()

	retryOpts := append([]retry.Option{
		retry.WithMaxRetries(ctx.Timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(ctx.Timeouts.RetryInitialDelay),
		retry.WithRetryable(aws.IsTransient),
	}, p.retryOptions...)
	return retry.WithExponentialBackoff(dctx, func() error {
		err := ctx.Cloud.DeleteResource(dctx, rec.Kind, rec.Handle)
		if err == nil || aws.IsNotFound(err) {
			return nil
		}
		return err
	}, retryOpts...)
}

// ordered sorts records so dependents come before their dependencies,
// with names breaking ties for determinism.
func ordered(records []ledger.Record) []ledger.Record {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := rank(records[i].Kind), rank(records[j].Kind)
		if ri != rj {
			return ri < rj
		}
		return records[i].LogicalName < records[j].LogicalName
	})
	return records
}

func rank(kind ledger.Kind) int {
	r, ok := deleteOrder[kind]
	if !ok {
		// Unknown kinds go first so a stale entry cannot shadow the
		// teardown of everything below it.
		return -1
	}
	return r
}
