package orchestrator

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/celestiaorg/gcpiac/internal/configuration"
	"github.com/celestiaorg/gcpiac/internal/provisioning"
	"github.com/celestiaorg/gcpiac/internal/types"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Name() string { return "terraform" }

func (m *MockEngine) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockEngine) Apply(ctx context.Context) (*types.ProvisionedInstance, error) {
	args := m.Called(ctx)
	instance, _ := args.Get(0).(*types.ProvisionedInstance)
	return instance, args.Error(1)
}

func (m *MockEngine) PlanDestroy(ctx context.Context) (*provisioning.DestroyPlan, error) {
	args := m.Called(ctx)
	plan, _ := args.Get(0).(*provisioning.DestroyPlan)
	return plan, args.Error(1)
}

func (m *MockEngine) ShowPlan(ctx context.Context) (*provisioning.DestroyPlan, error) {
	args := m.Called(ctx)
	plan, _ := args.Get(0).(*provisioning.DestroyPlan)
	return plan, args.Error(1)
}

func (m *MockEngine) Destroy(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockConfigurator struct {
	mock.Mock
}

func (m *MockConfigurator) Configure(ctx context.Context, req configuration.Request) error {
	return m.Called(ctx, req).Error(0)
}

// failingStore fails removal of one workspace and delegates the rest
type failingStore struct {
	workspace.Store
	failOn  string
	removed []string
}

func (f *failingStore) Remove(name string) error {
	if name == f.failOn {
		return errors.New("permission denied")
	}
	f.removed = append(f.removed, name)
	return f.Store.Remove(name)
}
