package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunStartedAtField is the database field name for the run start timestamp
const RunStartedAtField = "started_at"

// Action is the workflow a run executed
type Action string

// Workflow actions
const (
	ActionApply   Action = "apply"
	ActionDestroy Action = "destroy"
	ActionInit    Action = "init"
)

// ParseAction converts a string to an Action
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionApply, ActionDestroy, ActionInit:
		return a, nil
	}
	return "", fmt.Errorf("invalid action: %s", s)
}

// Run is one recorded workflow execution
type Run struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Action     Action     `json:"action" gorm:"not null;index"`
	State      string     `json:"state" gorm:"not null"`
	Instance   string     `json:"instance,omitempty" gorm:"index"`
	IP         string     `json:"ip,omitempty"`
	Success    bool       `json:"success" gorm:"not null;default:false"`
	Error      string     `json:"error,omitempty" gorm:"type:text"`
	StartedAt  time.Time  `json:"started_at" gorm:"not null;index"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// BeforeCreate assigns an ID to runs created without one
func (r *Run) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Finished reports whether the run reached a terminal state
func (r *Run) Finished() bool {
	return r.FinishedAt != nil
}

// Duration is the wall time of a finished run, zero otherwise
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
