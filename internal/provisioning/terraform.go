package provisioning

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/command"
	"github.com/celestiaorg/gcpiac/internal/display"
	"github.com/celestiaorg/gcpiac/internal/types"
)

// TerraformOptions scopes the engine to one working directory and one variables file
type TerraformOptions struct {
	Binary   string // terraform or tofu
	Dir      string // working directory holding the definition
	VarsFile string // -var-file passed to apply and plan
	PlanFile string // where the destroy plan is persisted
}

// Terraform drives the terraform CLI through a command.Executor
type Terraform struct {
	opts    TerraformOptions
	runner  command.Executor
	display *display.Display
	log     logrus.FieldLogger
}

var _ Engine = (*Terraform)(nil)

// NewTerraform creates a Terraform engine
func NewTerraform(opts TerraformOptions, runner command.Executor, d *display.Display, log logrus.FieldLogger) *Terraform {
	if opts.Binary == "" {
		opts.Binary = "terraform"
	}
	return &Terraform{
		opts:    opts,
		runner:  runner,
		display: d,
		log:     log.WithField("engine", opts.Binary),
	}
}

// Name implements Engine.Name
func (t *Terraform) Name() string {
	return t.opts.Binary
}

func (t *Terraform) command(args ...string) command.Command {
	return command.Command{
		Name: t.opts.Binary,
		Args: args,
		Dir:  t.opts.Dir,
		Env:  []string{"TF_IN_AUTOMATION=1"},
	}
}

func (t *Terraform) run(ctx context.Context, step string, args ...string) (string, error) {
	res := t.runner.Run(ctx, t.command(args...))
	if !res.OK {
		return "", fmt.Errorf("%w: %s %s: %s", ErrCommand, t.opts.Binary, step, res.Error)
	}
	return res.Stdout, nil
}

// Init implements Engine.Init
func (t *Terraform) Init(ctx context.Context) error {
	if _, err := t.run(ctx, "init", "init", "-input=false"); err != nil {
		return err
	}
	t.log.Info("Successfully initialized Terraform")
	return nil
}

// Apply implements Engine.Apply
func (t *Terraform) Apply(ctx context.Context) (*types.ProvisionedInstance, error) {
	stop := t.display.Spin("Applying Terraform")
	_, err := t.run(ctx, "apply", "apply", "-input=false", "-auto-approve", "-var-file="+t.opts.VarsFile)
	stop()
	if err != nil {
		return nil, err
	}
	return t.outputs(ctx)
}

func (t *Terraform) outputs(ctx context.Context) (*types.ProvisionedInstance, error) {
	stdout, err := t.run(ctx, "output", "output", "-json")
	if err != nil {
		return nil, err
	}
	return parseOutputs([]byte(stdout))
}

func instanceFromOutputs(values map[string]interface{}) (*types.ProvisionedInstance, error) {
	ip, err := stringOutput(values, OutputInstanceIP)
	if err != nil {
		return nil, err
	}
	name, err := stringOutput(values, OutputInstanceName)
	if err != nil {
		return nil, err
	}
	return &types.ProvisionedInstance{Name: name, IP: ip}, nil
}

// PlanDestroy implements Engine.PlanDestroy
func (t *Terraform) PlanDestroy(ctx context.Context) (*DestroyPlan, error) {
	stop := t.display.Spin("Planning destroy")
	_, err := t.run(ctx, "plan", "plan", "-destroy", "-input=false",
		"-var-file="+t.opts.VarsFile, "-out="+t.opts.PlanFile)
	stop()
	if err != nil {
		return nil, err
	}
	return t.ShowPlan(ctx)
}

// ShowPlan implements Engine.ShowPlan
func (t *Terraform) ShowPlan(ctx context.Context) (*DestroyPlan, error) {
	stdout, err := t.run(ctx, "show", "show", "-json", t.opts.PlanFile)
	if err != nil {
		return nil, err
	}
	return ParsePlan([]byte(stdout))
}

// Destroy implements Engine.Destroy by applying the saved destroy plan, so exactly the
// changes ShowPlan reported are made
func (t *Terraform) Destroy(ctx context.Context) error {
	stop := t.display.Spin("Destroying Terraform resources")
	_, err := t.run(ctx, "destroy", "apply", "-input=false", "-auto-approve", t.opts.PlanFile)
	stop()
	return err
}
