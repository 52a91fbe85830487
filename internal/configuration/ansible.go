package configuration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/command"
	"github.com/celestiaorg/gcpiac/internal/constants"
	"github.com/celestiaorg/gcpiac/internal/display"
)

const (
	// PlaybookBinary is the ansible entrypoint used for runs
	PlaybookBinary = "ansible-playbook"

	// StatusSuccessful is written to the status artifact when rc is 0
	StatusSuccessful = "successful"
	// StatusFailed is written to the status artifact otherwise
	StatusFailed = "failed"

	// DefaultInterpreter is the python interpreter used on managed hosts
	DefaultInterpreter = "/usr/bin/python3"
)

// AnsibleOptions holds the environment fixed for every run
type AnsibleOptions struct {
	// ConfigFile is exported as ANSIBLE_CONFIG
	ConfigFile string
	// Interpreter is exported as ANSIBLE_PYTHON_INTERPRETER
	Interpreter string
	// PrivateKeyFile is exported as ANSIBLE_PRIVATE_KEY_FILE
	PrivateKeyFile string
}

// Validate validates the options and applies defaults
func (o *AnsibleOptions) Validate() error {
	if o.PrivateKeyFile == "" {
		return fmt.Errorf("private key file is required")
	}
	if o.Interpreter == "" {
		o.Interpreter = DefaultInterpreter
	}
	return nil
}

// Deps are the collaborators a configurator reports through
type Deps struct {
	Runner  command.Executor
	Display *display.Display
	Log     logrus.FieldLogger
}

// Ansible runs ansible-playbook through a command.Executor
type Ansible struct {
	opts    AnsibleOptions
	runner  command.Executor
	display *display.Display
	log     logrus.FieldLogger
	newID   func() string
}

var _ Configurator = (*Ansible)(nil)

// NewAnsible creates an Ansible configurator
func NewAnsible(opts AnsibleOptions, deps Deps) (*Ansible, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Runner == nil {
		return nil, fmt.Errorf("invalid config: runner is required")
	}
	return &Ansible{
		opts:    opts,
		runner:  deps.Runner,
		display: deps.Display,
		log:     deps.Log,
		newID:   func() string { return uuid.NewString() },
	}, nil
}

// Env returns the environment every run gets on top of the process environment
func (a *Ansible) Env() []string {
	env := []string{
		constants.EnvAnsiblePythonInterpreter + "=" + a.opts.Interpreter,
		constants.EnvAnsiblePrivateKeyFile + "=" + a.opts.PrivateKeyFile,
		"ANSIBLE_HOST_KEY_CHECKING=false",
		"ANSIBLE_RETRY_FILES_ENABLED=false",
	}
	if a.opts.ConfigFile != "" {
		env = append(env, constants.EnvAnsibleConfig+"="+a.opts.ConfigFile)
	}
	return env
}

// Configure implements Configurator.Configure
func (a *Ansible) Configure(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	log := a.log.WithFields(logrus.Fields{
		"workspace": req.Workspace,
		"inventory": req.Inventory,
		"playbook":  req.Playbook,
	})

	if _, err := os.Stat(req.Inventory); err != nil {
		return fmt.Errorf("%w: inventory: %v", ErrMissingInput, err)
	}
	if _, err := os.Stat(req.Playbook); err != nil {
		return fmt.Errorf("%w: playbook: %v", ErrMissingInput, err)
	}

	cmd := command.Command{
		Name: PlaybookBinary,
		Args: []string{"-i", req.Inventory, req.Playbook},
		Dir:  req.Workspace,
		Env:  a.Env(),
	}

	log.Info("Running Ansible playbook")
	stop := a.display.Spin("Running Ansible playbook")
	res := a.runner.Run(ctx, cmd, command.SuppressErrors())
	stop()

	status := StatusSuccessful
	if !res.OK {
		status = StatusFailed
	}

	if req.ArtifactDir != "" {
		runID := a.newID()
		if err := writeArtifacts(filepath.Join(req.ArtifactDir, runID), res, status); err != nil {
			log.WithError(err).Warn("Failed to write run artifacts")
		} else {
			log = log.WithField("run_id", runID)
		}
	}

	if status != StatusSuccessful {
		log.WithField("exit_code", res.ExitCode).Errorf("Ansible playbook %s: %s", status, res.Error)
		return fmt.Errorf("%w: status %s: %s", ErrCommand, status, res.Error)
	}

	log.Info("Ansible playbook completed successfully")
	return nil
}

func writeArtifacts(dir string, res command.Result, status string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	files := map[string]string{
		"stdout": res.Stdout,
		"stderr": res.Error,
		"rc":     strconv.Itoa(res.ExitCode),
		"status": status,
	}
	var errs []error
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
