package orchestrator

import (
	"context"
	"fmt"

	"github.com/celestiaorg/gcpiac/internal/events"
)

// Destroy plans the teardown, destroys the infrastructure and removes the workspace of every
// deleted instance. Cleanup stops at the first workspace that cannot be removed.
func (o *Orchestrator) Destroy(ctx context.Context) *Result {
	w, release, rejected := o.begin(ctx, ActionDestroy)
	if w == nil {
		return rejected
	}
	defer release()

	w.transition(StatePlanning)
	plan, err := o.engine.PlanDestroy(ctx)
	if err != nil {
		return w.fail(fmt.Errorf("plan error: %w", classify(err, ErrCommand)))
	}
	if plan.Empty() {
		return w.fail(ErrEmptyPlan)
	}
	deleted := plan.Deleted()
	w.log.WithField("deleted", deleted).Infof("Destroy plan holds %d changes", len(plan.Changes))

	w.transition(StateDestroying)
	if err := o.engine.Destroy(ctx); err != nil {
		return w.fail(classify(err, ErrCommand))
	}
	o.display.Success("Successfully destroyed %s resources", o.engine.Name())

	w.transition(StateCleaningUp)
	var cleanupErr error
	for _, name := range deleted {
		if err := o.workspaces.Remove(name); err != nil {
			cleanupErr = fmt.Errorf("%w: %s: %w", ErrWorkspace, name, err)
			break
		}
		w.result.Removed = append(w.result.Removed, name)
		line := fmt.Sprintf("Removed workspace for instance %s", name)
		w.result.Summary = append(w.result.Summary, line)
		o.display.Success("%s", line)
	}
	if len(w.result.Removed) > 0 {
		o.bus.Publish(ctx, events.Event{
			Type:    events.EventWorkspaceRemoved,
			RunID:   w.result.RunID,
			Action:  string(ActionDestroy),
			Removed: w.result.Removed,
		})
	}
	if cleanupErr != nil {
		return w.fail(cleanupErr)
	}
	return w.done()
}
