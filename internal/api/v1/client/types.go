package client

import (
	"encoding/json"
	"time"

	"github.com/celestiaorg/gcpiac/internal/types"
)

// envelope is the response wrapper every endpoint uses
type envelope struct {
	Slug  string          `json:"slug"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// WorkflowResult is the outcome of a remote apply or destroy
type WorkflowResult struct {
	RunID      string                     `json:"run_id"`
	Action     string                     `json:"action"`
	State      string                     `json:"state"`
	FailedAt   string                     `json:"failed_at"`
	Instance   *types.ProvisionedInstance `json:"instance"`
	Removed    []string                   `json:"removed"`
	Summary    []string                   `json:"summary"`
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
	OK         bool                       `json:"ok"`
	Error      string                     `json:"error"`
}
