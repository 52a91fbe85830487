// Package configuration runs the configuration-management engine against a provisioned instance
package configuration

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCommand is returned when the configuration run does not succeed
	ErrCommand = errors.New("configuration run failed")
	// ErrMissingInput is returned when the playbook or inventory does not exist
	ErrMissingInput = errors.New("configuration input not found")
)

// Request describes one configuration run
type Request struct {
	Workspace   string // private data directory the engine runs in
	Playbook    string
	Inventory   string
	ArtifactDir string
}

// Validate checks that the request names every path a run needs
func (r Request) Validate() error {
	switch {
	case r.Workspace == "":
		return fmt.Errorf("workspace is required")
	case r.Playbook == "":
		return fmt.Errorf("playbook is required")
	case r.Inventory == "":
		return fmt.Errorf("inventory is required")
	}
	return nil
}

// Configurator defines the interface for configuration engines
type Configurator interface {
	// Configure runs the playbook against the inventory and blocks until it finishes
	Configure(ctx context.Context, req Request) error
}

// Type represents the type of configurator
type Type string

const (
	// TypeAnsible represents the Ansible configurator
	TypeAnsible Type = "ansible"
)

// New creates a configurator of the specified type
func New(typ Type, opts AnsibleOptions, deps Deps) (Configurator, error) {
	switch typ {
	case TypeAnsible:
		return NewAnsible(opts, deps)
	default:
		return nil, fmt.Errorf("unknown configurator type: %s", typ)
	}
}
