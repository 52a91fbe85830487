package orchestrator

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/celestiaorg/gcpiac/internal/environment"
	"github.com/celestiaorg/gcpiac/internal/types"
)

// State is a step of a workflow
type State string

// Workflow states. Apply runs Idle → Applying → WaitingReady → Configuring → Done, destroy
// runs Idle → Planning → Destroying → CleaningUp → Done and init runs Idle → Initializing →
// Done. Any failure moves straight to Failed.
const (
	StateIdle         State = "Idle"
	StateApplying     State = "Applying"
	StateWaitingReady State = "WaitingReady"
	StateConfiguring  State = "Configuring"
	StatePlanning     State = "Planning"
	StateDestroying   State = "Destroying"
	StateCleaningUp   State = "CleaningUp"
	StateInitializing State = "Initializing"
	StateDone         State = "Done"
	StateFailed       State = "Failed"
)

// Terminal reports whether no further transition can follow s
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Action names a workflow
type Action string

// Workflows
const (
	ActionApply     Action = "apply"
	ActionDestroy   Action = "destroy"
	ActionInit      Action = "init"
	ActionPreflight Action = "preflight"
)

var (
	// ErrCommand is returned when an external tool exits with a failure
	ErrCommand = errors.New("command failed")
	// ErrAdapter is returned when engine output is missing or malformed
	ErrAdapter = errors.New("adapter failure")
	// ErrNotReady is returned when the instance never accepted connections
	ErrNotReady = errors.New("instance not ready")
	// ErrWorkspace is returned when a workspace cannot be created or removed
	ErrWorkspace = errors.New("workspace failure")
	// ErrPrecondition is returned when a required input is missing
	ErrPrecondition = errors.New("precondition failed")
	// ErrEmptyPlan is returned when a destroy plan holds nothing to destroy
	ErrEmptyPlan = errors.New("nothing to destroy")
	// ErrBusy is returned when another workflow is running and concurrent runs are rejected
	ErrBusy = errors.New("another workflow is running")
)

// Result is the outcome of a workflow
type Result struct {
	RunID    string                     `json:"run_id,omitempty"`
	Action   Action                     `json:"action"`
	State    State                      `json:"state"`
	FailedAt State                      `json:"failed_at,omitempty"`
	Instance *types.ProvisionedInstance `json:"instance,omitempty"`
	Removed  []string                   `json:"removed,omitempty"`
	Summary  []string                   `json:"summary,omitempty"`
	Steps    []environment.StepResult   `json:"steps,omitempty"`
	Checks   []environment.Check        `json:"checks,omitempty"`
	Started  time.Time                  `json:"started_at"`
	Finished time.Time                  `json:"finished_at"`
	Err      error                      `json:"-"`
}

// OK reports whether the workflow reached Done
func (r *Result) OK() bool {
	return r != nil && r.State == StateDone
}

// MarshalJSON renders Err as a string
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}{plain: plain(r), OK: r.State == StateDone}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}
