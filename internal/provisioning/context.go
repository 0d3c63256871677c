package provisioning

import (
	"context"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/ledger"
)

// Context wraps all dependencies and state needed for graph execution.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Cloud    CloudProvider
	Ledger   *ledger.Store
	Observer Observer
	Timeouts *config.Timeouts
}

// NewContext creates a new provisioning context.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	cloud CloudProvider,
	led *ledger.Store,
) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(),
		Cloud:    cloud,
		Ledger:   led,
		Observer: NewConsoleObserver(),
		Timeouts: config.LoadTimeouts(),
	}
}
