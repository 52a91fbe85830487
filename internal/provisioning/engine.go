// Package provisioning wraps the infrastructure-as-code engines and translates their
// structured output into typed results
package provisioning

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/command"
	"github.com/celestiaorg/gcpiac/internal/config"
	"github.com/celestiaorg/gcpiac/internal/display"
	"github.com/celestiaorg/gcpiac/internal/types"
)

// Named outputs every infrastructure definition must expose after apply
const (
	OutputInstanceIP   = "instance_ip"
	OutputInstanceName = "instance_name"
)

var (
	// ErrCommand is returned when the engine exits with a failure
	ErrCommand = errors.New("provisioning command failed")
	// ErrAdapter is returned when engine output is missing or malformed
	ErrAdapter = errors.New("unexpected provisioning output")
)

// Engine defines the interface for infrastructure-as-code engines
type Engine interface {
	// Name identifies the engine in logs
	Name() string

	// Init initializes the backend and providers. Safe to call repeatedly.
	Init(ctx context.Context) error

	// Apply applies the definition without a separate plan step and returns the instance
	Apply(ctx context.Context) (*types.ProvisionedInstance, error)

	// PlanDestroy computes and persists a destroy plan without applying it
	PlanDestroy(ctx context.Context) (*DestroyPlan, error)

	// ShowPlan loads the structured form of the most recent plan
	ShowPlan(ctx context.Context) (*DestroyPlan, error)

	// Destroy irreversibly destroys the infrastructure
	Destroy(ctx context.Context) error
}

// New creates the engine selected by cfg.Engine
func New(cfg *config.Config, runner command.Executor, d *display.Display, log logrus.FieldLogger) (Engine, error) {
	paths := cfg.Paths()
	switch cfg.Engine {
	case config.EngineTerraform:
		return NewTerraform(TerraformOptions{
			Binary:   cfg.Terraform.Binary,
			Dir:      paths.TerraformDir,
			VarsFile: paths.VarsFile,
			PlanFile: paths.PlanFile,
		}, runner, d, log), nil
	case config.EnginePulumi:
		return NewPulumi(PulumiOptions{
			Stack:        cfg.Pulumi.Stack,
			Dir:          paths.PulumiDir,
			VarsFile:     paths.VarsFile,
			Credentials:  paths.Credentials,
			InstanceType: cfg.Pulumi.InstanceType,
		}, d, log), nil
	default:
		return nil, fmt.Errorf("unknown provisioning engine: %s", cfg.Engine)
	}
}
