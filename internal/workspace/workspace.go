// Package workspace manages the per-instance directories the configuration engine runs in
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"
)

const (
	// InventoryFile is the inventory file name inside a workspace
	InventoryFile = "inventory.ini"
	// ArtifactsDir is the run artifact directory inside a workspace
	ArtifactsDir = "artifacts"
)

// ErrInvalidName is returned for names that cannot be used as a directory
var ErrInvalidName = errors.New("invalid workspace name")

// Workspace is the directory scoped to one provisioned instance
type Workspace struct {
	Name          string `json:"name"`
	Dir           string `json:"dir"`
	InventoryPath string `json:"inventory_path"`
	ArtifactDir   string `json:"artifact_dir"`
}

// Store is what the workflows need from a workspace manager
type Store interface {
	Create(name, ip string) (*Workspace, error)
	Remove(name string) error
}

// Manager creates and removes workspaces under a root directory
type Manager struct {
	root string
	tmpl *template.Template
	opts InventoryOptions
	log  logrus.FieldLogger
}

var _ Store = (*Manager)(nil)

// NewManager creates a Manager rooted at root (usually ansible/clients)
func NewManager(root string, opts InventoryOptions, log logrus.FieldLogger) (*Manager, error) {
	tmpl, err := parseInventoryTemplate(opts)
	if err != nil {
		return nil, err
	}
	return &Manager{root: root, tmpl: tmpl, opts: opts, log: log}, nil
}

// Root returns the directory holding every workspace
func (m *Manager) Root() string {
	return m.root
}

// Path returns the workspace directory for name
func (m *Manager) Path(name string) string {
	return filepath.Join(m.root, name)
}

func (m *Manager) workspace(name string) *Workspace {
	dir := m.Path(name)
	return &Workspace{
		Name:          name,
		Dir:           dir,
		InventoryPath: filepath.Join(dir, InventoryFile),
		ArtifactDir:   filepath.Join(dir, ArtifactsDir),
	}
}

// Create makes the workspace for name and writes an inventory pointing at ip. Existing
// directories are reused and an existing inventory is overwritten.
func (m *Manager) Create(name, ip string) (*Workspace, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	log := m.log.WithFields(logrus.Fields{"instance": name, "ip": ip})
	ws := m.workspace(name)

	if err := os.MkdirAll(ws.ArtifactDir, 0750); err != nil {
		log.WithError(err).Error("Failed to create client directory")
		return nil, fmt.Errorf("failed to create workspace %s: %w", name, err)
	}

	data, err := renderInventory(m.tmpl, inventoryData{
		Name:    name,
		IP:      ip,
		User:    m.opts.User,
		KeyPath: m.opts.KeyPath,
	})
	if err != nil {
		log.WithError(err).Error("Failed to render inventory")
		return nil, err
	}

	if err := os.WriteFile(ws.InventoryPath, data, 0600); err != nil {
		log.WithError(err).Error("Failed to write inventory")
		return nil, fmt.Errorf("failed to write inventory for %s: %w", name, err)
	}

	log.Debugf("Created workspace at %s", ws.Dir)
	return ws, nil
}

// Remove deletes the workspace for name. A missing workspace is not an error.
func (m *Manager) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	dir := m.Path(name)
	if err := os.RemoveAll(dir); err != nil {
		m.log.WithField("instance", name).WithError(err).Error("Failed to remove client directory")
		return fmt.Errorf("failed to remove workspace %s: %w", name, err)
	}
	m.log.WithField("instance", name).Debugf("Removed workspace %s", dir)
	return nil
}

// List returns the existing workspaces sorted by name
func (m *Manager) List() ([]Workspace, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Workspace{}, nil
		}
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	workspaces := make([]Workspace, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		workspaces = append(workspaces, *m.workspace(e.Name()))
	}
	sort.Slice(workspaces, func(i, j int) bool { return workspaces[i].Name < workspaces[j].Name })
	return workspaces, nil
}

// Host reads the address recorded in a workspace inventory, for listings
func (w Workspace) Host() string {
	// #nosec G304 -- the inventory path is derived from the workspace root
	data, err := os.ReadFile(w.InventoryPath)
	if err != nil {
		return ""
	}
	for _, field := range strings.Fields(string(data)) {
		if v, ok := strings.CutPrefix(field, "ansible_host="); ok {
			return v
		}
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) > 1 {
		if f := strings.Fields(lines[1]); len(f) > 0 {
			return f[0]
		}
	}
	return ""
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}
