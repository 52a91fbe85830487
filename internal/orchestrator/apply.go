package orchestrator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/configuration"
	"github.com/celestiaorg/gcpiac/internal/environment"
)

// ApplyOptions tune the apply workflow
type ApplyOptions struct {
	// Force recreates the workspace of the instance from scratch
	Force bool
}

// Apply provisions the instance, waits until it accepts connections and configures it
func (o *Orchestrator) Apply(ctx context.Context, opts ApplyOptions) *Result {
	w, release, rejected := o.begin(ctx, ActionApply)
	if w == nil {
		return rejected
	}
	defer release()

	w.transition(StateApplying)
	o.display.Info("Applying %s", o.engine.Name())
	instance, err := o.engine.Apply(ctx)
	if err != nil {
		return w.fail(classify(err, ErrCommand))
	}
	if err := instance.Validate(); err != nil {
		return w.fail(fmt.Errorf("%w: %v", ErrAdapter, err))
	}
	w.result.Instance = instance
	w.log = w.log.WithFields(logrus.Fields{"instance": instance.Name, "ip": instance.IP})
	o.display.Success("Successfully applied %s", o.engine.Name())
	o.display.Success("%s", instance)

	w.transition(StateWaitingReady)
	if !o.checker.WaitForOpen(ctx, instance.IP) {
		return w.fail(fmt.Errorf("%w: failed to configure system", ErrNotReady))
	}

	w.transition(StateConfiguring)
	if opts.Force {
		if err := o.workspaces.Remove(instance.Name); err != nil {
			return w.fail(fmt.Errorf("%w: %w", ErrWorkspace, err))
		}
	}
	ws, err := o.workspaces.Create(instance.Name, instance.IP)
	if err != nil {
		return w.fail(fmt.Errorf("%w: %w", ErrWorkspace, err))
	}

	err = o.configurator.Configure(ctx, configuration.Request{
		Workspace:   ws.Dir,
		Playbook:    o.opts.Playbook,
		Inventory:   ws.InventoryPath,
		ArtifactDir: ws.ArtifactDir,
	})
	if err != nil {
		return w.fail(classify(err, ErrCommand))
	}

	o.display.Success("Successfully configured system")
	line := fmt.Sprintf("Configured instance %s at %s", instance.Name, instance.IP)
	w.result.Summary = append(w.result.Summary, line)
	o.display.Success("%s", line)
	return w.done()
}

// Preflight checks that every file apply needs is present without provisioning anything
func (o *Orchestrator) Preflight(_ context.Context) *Result {
	res := &Result{Action: ActionPreflight, State: StateIdle, Started: o.now()}
	if o.env == nil {
		res.State, res.FailedAt = StateFailed, StateIdle
		res.Err = fmt.Errorf("%w: environment is not configured", ErrPrecondition)
		res.Finished = o.now()
		return res
	}

	res.Checks = o.env.Preflight()
	for _, c := range res.Checks {
		if c.OK {
			o.display.Success("%s found at %s", c.Name, c.Path)
		} else {
			o.display.Failure("%s not found at %s", c.Name, c.Path)
		}
	}
	res.Finished = o.now()

	if err := environment.Ready(res.Checks); err != nil {
		res.State, res.FailedAt = StateFailed, StateIdle
		res.Err = fmt.Errorf("%w: %w", ErrPrecondition, err)
		return res
	}
	res.State = StateDone
	res.Summary = []string{
		fmt.Sprintf("Apply would run %s and configure the instance with %s", o.engine.Name(), o.opts.Playbook),
	}
	o.display.Info("%s", res.Summary[0])
	return res
}
