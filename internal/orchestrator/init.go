package orchestrator

import (
	"context"
	"fmt"
)

// InitOptions are the inputs of the init workflow
type InitOptions struct {
	ServiceAccount string // service account key file to install
	Project        string // target project, read from the key file when empty
	Force          bool   // overwrite every existing file
}

// Init bootstraps the environment: credentials, variables file, keypair and engine backend.
// The first failing step aborts the rest.
func (o *Orchestrator) Init(ctx context.Context, opts InitOptions) *Result {
	w, release, rejected := o.begin(ctx, ActionInit)
	if w == nil {
		return rejected
	}
	defer release()

	w.transition(StateInitializing)
	if o.env == nil {
		return w.fail(fmt.Errorf("%w: environment is not configured", ErrPrecondition))
	}

	step, detected, err := o.env.InstallCredentials(ctx, opts.ServiceAccount, opts.Force)
	w.result.Steps = append(w.result.Steps, step)
	if err != nil {
		return w.fail(classify(err, ErrPrecondition))
	}

	project := opts.Project
	if project == "" {
		project = detected
	}
	step, err = o.env.WriteVars(project, opts.Force)
	w.result.Steps = append(w.result.Steps, step)
	if err != nil {
		return w.fail(classify(err, ErrWorkspace))
	}

	step, err = o.env.EnsureKeyPair(opts.Force)
	w.result.Steps = append(w.result.Steps, step)
	if err != nil {
		return w.fail(classify(err, ErrWorkspace))
	}

	stop := o.display.Spin(fmt.Sprintf("Initializing %s", o.engine.Name()))
	err = o.engine.Init(ctx)
	stop()
	if err != nil {
		return w.fail(classify(err, ErrCommand))
	}
	o.display.Success("Successfully initialized %s", o.engine.Name())
	return w.done()
}
