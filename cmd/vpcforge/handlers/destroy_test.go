package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/platform/aws/fakes"
	"github.com/imamik/vpcforge/internal/provisioning"
)

func TestDestroy(t *testing.T) {
	fake := fakes.NewFakeEC2()
	led := ledger.NewMemory()
	stubFactories(t, testHandlerConfig(), fake, led)

	require.NoError(t, Apply(context.Background(), ""))
	require.False(t, led.Empty())

	require.NoError(t, Destroy(context.Background(), ""))
	assert.True(t, led.Empty())
	assert.True(t, fake.Empty())
}

func TestDestroy_EmptyLedgerIsNoOp(t *testing.T) {
	fake := fakes.NewFakeEC2()
	stubFactories(t, testHandlerConfig(), fake, ledger.NewMemory())

	require.NoError(t, Destroy(context.Background(), ""))
	assert.Equal(t, 0, fake.DeleteCallCount())
}

func TestDestroy_UsesProvisionerSeam(t *testing.T) {
	stubFactories(t, testHandlerConfig(), fakes.NewFakeEC2(), ledger.NewMemory())

	origDestroy := newTeardownProvisioner
	defer func() { newTeardownProvisioner = origDestroy }()

	mock := &provisionerMock{}
	newTeardownProvisioner = func() Provisioner { return mock }

	require.NoError(t, Destroy(context.Background(), "vpcforge.yaml"))
	assert.True(t, mock.called)
}

type provisionerMock struct {
	called bool
}

func (m *provisionerMock) Provision(_ *provisioning.Context) error {
	m.called = true
	return nil
}
