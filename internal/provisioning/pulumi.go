package provisioning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/pulumi/pulumi/sdk/v3/go/common/apitype"
	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/display"
	"github.com/celestiaorg/gcpiac/internal/types"
)

// PulumiOptions scopes the engine to one project directory and stack
type PulumiOptions struct {
	Stack        string
	Dir          string // Pulumi project directory
	VarsFile     string // variables file the project id is read from
	Credentials  string // service account file handed to the gcp provider
	InstanceType string // resource type whose deletion removes a workspace
}

// pulumiStack is the part of auto.Stack the engine uses
type pulumiStack interface {
	SetConfig(ctx context.Context, key string, val auto.ConfigValue) error
	Up(ctx context.Context, opts ...optup.Option) (auto.UpResult, error)
	Destroy(ctx context.Context, opts ...optdestroy.Option) (auto.DestroyResult, error)
	Export(ctx context.Context) (apitype.UntypedDeployment, error)
}

// StackFunc selects (or creates) the stack an operation runs against
type StackFunc func(ctx context.Context) (pulumiStack, error)

// Pulumi drives a local Pulumi project through the automation API
type Pulumi struct {
	opts     PulumiOptions
	stack    StackFunc
	display  *display.Display
	log      logrus.FieldLogger
	progress io.Writer
}

var _ Engine = (*Pulumi)(nil)

// NewPulumi creates a Pulumi engine
func NewPulumi(opts PulumiOptions, d *display.Display, log logrus.FieldLogger) *Pulumi {
	p := &Pulumi{
		opts:    opts,
		display: d,
		log:     log.WithFields(logrus.Fields{"engine": "pulumi", "stack": opts.Stack}),
	}
	p.stack = p.upsertStack
	p.progress = logWriter{log: p.log}
	return p
}

// logWriter forwards engine progress to the logger at debug level, one entry per line
type logWriter struct {
	log logrus.FieldLogger
}

func (w logWriter) Write(b []byte) (int, error) {
	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.log.Debug(line)
		}
	}
	return len(b), nil
}

func (p *Pulumi) upsertStack(ctx context.Context) (pulumiStack, error) {
	stack, err := auto.UpsertStackLocalSource(ctx, p.opts.Stack, p.opts.Dir,
		auto.EnvVars(map[string]string{
			"GOOGLE_APPLICATION_CREDENTIALS": p.opts.Credentials,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create/select stack %s: %v", ErrCommand, p.opts.Stack, err)
	}
	return &stack, nil
}

// Name implements Engine.Name
func (p *Pulumi) Name() string {
	return "pulumi"
}

// Init implements Engine.Init
func (p *Pulumi) Init(ctx context.Context) error {
	stack, err := p.stack(ctx)
	if err != nil {
		return err
	}

	project, err := ReadProjectID(p.opts.VarsFile)
	if err != nil {
		return err
	}

	if err := stack.SetConfig(ctx, "gcp:project", auto.ConfigValue{Value: project}); err != nil {
		return fmt.Errorf("%w: failed to set gcp:project: %v", ErrCommand, err)
	}
	if err := stack.SetConfig(ctx, "gcp:credentials", auto.ConfigValue{Value: p.opts.Credentials, Secret: true}); err != nil {
		return fmt.Errorf("%w: failed to set gcp:credentials: %v", ErrCommand, err)
	}

	p.log.Info("Successfully initialized Pulumi stack")
	return nil
}

// Apply implements Engine.Apply
func (p *Pulumi) Apply(ctx context.Context) (*types.ProvisionedInstance, error) {
	stack, err := p.stack(ctx)
	if err != nil {
		return nil, err
	}

	stop := p.display.Spin("Running pulumi up")
	res, err := stack.Up(ctx, optup.ProgressStreams(p.progress))
	stop()
	if err != nil {
		return nil, fmt.Errorf("%w: pulumi up: %v", ErrCommand, err)
	}

	values := make(map[string]interface{}, len(res.Outputs))
	for k, v := range res.Outputs {
		values[k] = v.Value
	}
	return instanceFromOutputs(values)
}

// PlanDestroy implements Engine.PlanDestroy. Destroying a stack deletes every resource it
// holds, so the plan is the current deployment with every custom resource marked for
// deletion. Only resources of the instance type carry a name.
func (p *Pulumi) PlanDestroy(ctx context.Context) (*DestroyPlan, error) {
	return p.ShowPlan(ctx)
}

// ShowPlan implements Engine.ShowPlan
func (p *Pulumi) ShowPlan(ctx context.Context) (*DestroyPlan, error) {
	stack, err := p.stack(ctx)
	if err != nil {
		return nil, err
	}
	exported, err := stack.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: pulumi stack export: %v", ErrCommand, err)
	}
	return p.planFromDeployment(exported.Deployment)
}

func (p *Pulumi) planFromDeployment(data json.RawMessage) (*DestroyPlan, error) {
	var deployment apitype.DeploymentV3
	if err := json.Unmarshal(data, &deployment); err != nil {
		return nil, fmt.Errorf("%w: malformed deployment: %v", ErrAdapter, err)
	}

	plan := &DestroyPlan{}
	for _, r := range deployment.Resources {
		if !r.Custom {
			continue
		}
		var name string
		if p.opts.InstanceType == "" || string(r.Type) == p.opts.InstanceType {
			name, _ = r.Outputs["name"].(string)
		}
		plan.Changes = append(plan.Changes, ResourceChange{
			Action:       ActionDelete,
			Actions:      []string{string(ActionDelete)},
			ResourceName: name,
			Address:      string(r.URN),
			Type:         string(r.Type),
		})
	}
	return plan, nil
}

// Destroy implements Engine.Destroy
func (p *Pulumi) Destroy(ctx context.Context) error {
	stack, err := p.stack(ctx)
	if err != nil {
		return err
	}
	stop := p.display.Spin("Running pulumi destroy")
	_, err = stack.Destroy(ctx, optdestroy.ProgressStreams(p.progress))
	stop()
	if err != nil {
		return fmt.Errorf("%w: pulumi destroy: %v", ErrCommand, err)
	}
	return nil
}
