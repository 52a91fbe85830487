// Package history records workflow runs published on the event bus
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/db/models"
	"github.com/celestiaorg/gcpiac/internal/events"
)

// Store persists runs
type Store interface {
	Create(ctx context.Context, run *models.Run) error
	Update(ctx context.Context, run *models.Run) error
}

// Recorder keeps one history row per workflow run up to date
type Recorder struct {
	store Store
	log   logrus.FieldLogger

	mu   sync.Mutex
	runs map[string]*models.Run
}

// NewRecorder creates a Recorder writing to store
func NewRecorder(store Store, log logrus.FieldLogger) *Recorder {
	return &Recorder{
		store: store,
		log:   log,
		runs:  make(map[string]*models.Run),
	}
}

// Subscribe wires the recorder to the workflow events published on bus
func (r *Recorder) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventRunStarted, r.handleStarted)
	bus.Subscribe(events.EventStateChanged, r.handleStateChanged)
	bus.Subscribe(events.EventRunFinished, r.handleFinished)
}

func (r *Recorder) handleStarted(ctx context.Context, e events.Event) error {
	id, err := uuid.Parse(e.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", e.RunID, err)
	}
	action, err := models.ParseAction(e.Action)
	if err != nil {
		return err
	}

	run := &models.Run{
		ID:        id,
		Action:    action,
		State:     e.State,
		StartedAt: e.Time.UTC(),
	}
	if err := r.store.Create(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	r.mu.Lock()
	r.runs[e.RunID] = run
	r.mu.Unlock()
	return nil
}

func (r *Recorder) handleStateChanged(ctx context.Context, e events.Event) error {
	run := r.lookup(e.RunID)
	if run == nil {
		return nil
	}
	run.State = e.State
	applyInstance(run, e)
	return r.store.Update(ctx, run)
}

func (r *Recorder) handleFinished(ctx context.Context, e events.Event) error {
	run := r.lookup(e.RunID)
	if run == nil {
		r.log.WithField("run_id", e.RunID).Warn("Finished run was never recorded as started")
		return nil
	}

	r.mu.Lock()
	delete(r.runs, e.RunID)
	r.mu.Unlock()

	finished := e.Time.UTC()
	run.State = e.State
	run.FinishedAt = &finished
	run.Success = e.Err == nil
	if e.Err != nil {
		run.Error = e.Err.Error()
	}
	applyInstance(run, e)

	if err := r.store.Update(ctx, run); err != nil {
		return fmt.Errorf("failed to record run result: %w", err)
	}
	return nil
}

func (r *Recorder) lookup(runID string) *models.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[runID]
}

func applyInstance(run *models.Run, e events.Event) {
	if e.Instance != nil {
		run.Instance = e.Instance.Name
		run.IP = e.Instance.IP
	}
}
