package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/installer"
	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/platform/aws"
	"github.com/imamik/vpcforge/internal/platform/aws/fakes"
	"github.com/imamik/vpcforge/internal/provisioning"
	"github.com/imamik/vpcforge/internal/util/naming"
)

func testHandlerConfig() *config.Config {
	return &config.Config{
		ClusterName: "demo",
		Region:      "eu-central-1",
		LedgerPath:  "demo.ledger.yaml",
		Network: config.NetworkConfig{
			CIDR:           "172.16.0.0/16",
			SubnetPrefix:   24,
			PublicSubnets:  1,
			PrivateSubnets: 3,
		},
		Security: config.SecurityConfig{
			APIPort:      6443,
			AllowedCIDRs: []string{"0.0.0.0/0"},
		},
	}
}

// stubFactories points every factory seam at the given fakes and restores
// the originals when the test finishes.
func stubFactories(t *testing.T, cfg *config.Config, fake *fakes.FakeEC2, led *ledger.Store) {
	t.Helper()

	origLoad := loadConfigFile
	origEnv := settingsFromEnv
	origCloud := newCloudClient
	origLedger := openLedger
	origRunner := newInstallerRunner
	t.Cleanup(func() {
		loadConfigFile = origLoad
		settingsFromEnv = origEnv
		newCloudClient = origCloud
		openLedger = origLedger
		newInstallerRunner = origRunner
	})

	loadConfigFile = func(_ string) (*config.Config, error) { return cfg, nil }
	settingsFromEnv = func() (config.Settings, error) { return config.Settings{}, nil }
	newCloudClient = func(_ context.Context, _ aws.Options) (provisioning.CloudProvider, error) {
		return aws.NewWithAPI(fake), nil
	}
	openLedger = func(_ string) (*ledger.Store, error) { return led, nil }
	newInstallerRunner = func() installer.Runner { return &noopRunner{} }
}

type noopRunner struct{}

func (r *noopRunner) Run(_ context.Context, _ string, _, _ []string) error { return nil }

type captureRunner struct {
	command string
	env     []string
	called  bool
}

func (r *captureRunner) Run(_ context.Context, command string, _, env []string) error {
	r.called = true
	r.command = command
	r.env = env
	return nil
}

func TestApply(t *testing.T) {
	fake := fakes.NewFakeEC2()
	led := ledger.NewMemory()
	cfg := testHandlerConfig()
	cfg.Installer = config.InstallerConfig{Command: "cluster-install"}
	stubFactories(t, cfg, fake, led)

	runner := &captureRunner{}
	newInstallerRunner = func() installer.Runner { return runner }

	require.NoError(t, Apply(context.Background(), "vpcforge.yaml"))

	assert.Equal(t, 1, fake.CallCount("CreateVpc"))
	assert.False(t, led.Empty())

	require.True(t, runner.called)
	assert.Equal(t, "cluster-install", runner.command)
	assert.Contains(t, runner.env, "VPCFORGE_CLUSTER=demo")
	assert.Contains(t, runner.env, "VPCFORGE_REGION=eu-central-1")
}

func TestApply_SecondRunIssuesNoCreates(t *testing.T) {
	fake := fakes.NewFakeEC2()
	led := ledger.NewMemory()
	stubFactories(t, testHandlerConfig(), fake, led)

	require.NoError(t, Apply(context.Background(), ""))
	creates := fake.CreateCallCount()

	require.NoError(t, Apply(context.Background(), ""))
	assert.Equal(t, creates, fake.CreateCallCount(), "re-apply must not create anything")
}

func TestApply_FailureUnwindsEverything(t *testing.T) {
	fake := fakes.NewFakeEC2()
	led := ledger.NewMemory()
	stubFactories(t, testHandlerConfig(), fake, led)

	fake.Sticky["CreateNatGateway"] = true
	fake.FailWith("CreateNatGateway", &smithy.GenericAPIError{
		Code: "InvalidParameterValue", Message: "bad allocation",
	})

	err := Apply(context.Background(), "")
	require.Error(t, err)
	assert.True(t, led.Empty(), "ledger must be empty after unwind")
	assert.True(t, fake.Empty(), "no resources may survive the unwind")
}

func TestApply_ConflictResolutionPicksFreeBlock(t *testing.T) {
	fake := fakes.NewFakeEC2()
	fake.ExistingVpcCIDRs = []string{"172.16.0.0/16"}
	led := ledger.NewMemory()
	stubFactories(t, testHandlerConfig(), fake, led)

	require.NoError(t, Apply(context.Background(), ""))

	rec, ok := led.Lookup(naming.VPC("demo"))
	require.True(t, ok)
	assert.Equal(t, "10.0.0.0/16", rec.Attrs["cidr"])
}

func TestApply_ServesMetricsWhenConfigured(t *testing.T) {
	cfg := testHandlerConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	stubFactories(t, cfg, fakes.NewFakeEC2(), ledger.NewMemory())

	served := make(chan string, 1)
	origServe := serveMetrics
	serveMetrics = func(addr string) error {
		served <- addr
		return nil
	}
	defer func() { serveMetrics = origServe }()

	require.NoError(t, Apply(context.Background(), ""))

	select {
	case addr := <-served:
		assert.Equal(t, "127.0.0.1:0", addr)
	case <-time.After(time.Second):
		t.Fatal("metrics endpoint was not started")
	}
}

func TestApply_ConfigError(t *testing.T) {
	stubFactories(t, testHandlerConfig(), fakes.NewFakeEC2(), ledger.NewMemory())
	loadConfigFile = func(_ string) (*config.Config, error) {
		return nil, errors.New("no such file")
	}

	err := Apply(context.Background(), "missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
