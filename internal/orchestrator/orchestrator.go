// Package orchestrator sequences provisioning, readiness, configuration and cleanup into the
// apply, destroy and init workflows
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/configuration"
	"github.com/celestiaorg/gcpiac/internal/display"
	"github.com/celestiaorg/gcpiac/internal/environment"
	"github.com/celestiaorg/gcpiac/internal/events"
	"github.com/celestiaorg/gcpiac/internal/provisioning"
	"github.com/celestiaorg/gcpiac/internal/readiness"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

// Deps are the collaborators the workflows run against
type Deps struct {
	Engine       provisioning.Engine
	Checker      readiness.Checker
	Workspaces   workspace.Store
	Configurator configuration.Configurator
	Environment  *environment.Environment // required by Init and Preflight
	Bus          *events.Bus              // optional
	Display      *display.Display
	Log          logrus.FieldLogger
}

// Options tune the workflows
type Options struct {
	// Playbook is the configuration playbook run against every new instance
	Playbook string
	// RejectConcurrent makes a workflow fail with ErrBusy instead of waiting for a running one
	RejectConcurrent bool
}

// Orchestrator owns the workflow state machine
type Orchestrator struct {
	engine       provisioning.Engine
	checker      readiness.Checker
	workspaces   workspace.Store
	configurator configuration.Configurator
	env          *environment.Environment
	bus          *events.Bus
	display      *display.Display
	log          logrus.FieldLogger
	opts         Options

	mu    sync.Mutex
	newID func() string
	now   func() time.Time
}

// New creates an Orchestrator
func New(deps Deps, opts Options) (*Orchestrator, error) {
	switch {
	case deps.Engine == nil:
		return nil, fmt.Errorf("provisioning engine is required")
	case deps.Checker == nil:
		return nil, fmt.Errorf("readiness checker is required")
	case deps.Workspaces == nil:
		return nil, fmt.Errorf("workspace store is required")
	case deps.Configurator == nil:
		return nil, fmt.Errorf("configurator is required")
	case deps.Log == nil:
		return nil, fmt.Errorf("logger is required")
	}
	return &Orchestrator{
		engine:       deps.Engine,
		checker:      deps.Checker,
		workspaces:   deps.Workspaces,
		configurator: deps.Configurator,
		env:          deps.Environment,
		bus:          deps.Bus,
		display:      deps.Display,
		log:          deps.Log,
		opts:         opts,
		newID:        uuid.NewString,
		now:          time.Now,
	}, nil
}

// workflow tracks one run through the state machine
type workflow struct {
	o      *Orchestrator
	ctx    context.Context
	result *Result
	log    logrus.FieldLogger
}

// begin acquires the orchestrator and publishes the start of a run. The returned release must
// be called once the run finished. A nil workflow means the run was rejected.
func (o *Orchestrator) begin(ctx context.Context, action Action) (*workflow, func(), *Result) {
	if o.opts.RejectConcurrent {
		if !o.mu.TryLock() {
			res := &Result{Action: action, State: StateFailed, FailedAt: StateIdle, Err: ErrBusy}
			o.log.WithField("action", action).Warn("Rejected workflow, another one is running")
			return nil, nil, res
		}
	} else {
		o.mu.Lock()
	}

	w := &workflow{
		o:   o,
		ctx: ctx,
		result: &Result{
			RunID:   o.newID(),
			Action:  action,
			State:   StateIdle,
			Started: o.now(),
		},
	}
	w.log = o.log.WithFields(logrus.Fields{"run_id": w.result.RunID, "action": action})
	w.log.Info("Workflow started")
	o.bus.Publish(ctx, events.Event{
		Type:   events.EventRunStarted,
		RunID:  w.result.RunID,
		Action: string(action),
		State:  string(StateIdle),
		Time:   w.result.Started,
	})
	return w, o.mu.Unlock, nil
}

func (w *workflow) transition(state State) {
	w.log.WithFields(logrus.Fields{"from": w.result.State, "to": state}).Debug("State transition")
	w.result.State = state
	w.o.bus.Publish(w.ctx, events.Event{
		Type:     events.EventStateChanged,
		RunID:    w.result.RunID,
		Action:   string(w.result.Action),
		State:    string(state),
		Instance: w.result.Instance,
	})
}

func (w *workflow) finish() *Result {
	w.result.Finished = w.o.now()
	w.o.bus.Publish(w.ctx, events.Event{
		Type:     events.EventRunFinished,
		RunID:    w.result.RunID,
		Action:   string(w.result.Action),
		State:    string(w.result.State),
		Instance: w.result.Instance,
		Removed:  w.result.Removed,
		Err:      w.result.Err,
		Time:     w.result.Finished,
	})
	return w.result
}

// fail moves the run to Failed and reports err
func (w *workflow) fail(err error) *Result {
	w.result.FailedAt = w.result.State
	w.result.State = StateFailed
	w.result.Err = err
	w.log.WithFields(logrus.Fields{"failed_at": w.result.FailedAt}).WithError(err).Error("Workflow failed")
	w.o.display.Failure("%s failed: %v", w.result.Action, err)
	return w.finish()
}

// done moves the run to Done
func (w *workflow) done() *Result {
	w.result.State = StateDone
	w.log.Info("Workflow completed")
	return w.finish()
}

// classify wraps err with the sentinel matching its origin, falling back to fallback
func classify(err error, fallback error) error {
	var sentinel error
	switch {
	case errors.Is(err, provisioning.ErrCommand), errors.Is(err, configuration.ErrCommand):
		sentinel = ErrCommand
	case errors.Is(err, provisioning.ErrAdapter):
		sentinel = ErrAdapter
	case errors.Is(err, environment.ErrPrecondition), errors.Is(err, configuration.ErrMissingInput),
		errors.Is(err, environment.ErrCredentials):
		sentinel = ErrPrecondition
	default:
		sentinel = fallback
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
