// Package environment prepares and checks the files a provisioning environment depends on
package environment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"

	"github.com/celestiaorg/gcpiac/internal/config"
	"github.com/celestiaorg/gcpiac/internal/display"
	"github.com/celestiaorg/gcpiac/internal/keygen"
	"github.com/celestiaorg/gcpiac/internal/provisioning"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var (
	// ErrPrecondition is returned when a required input is missing
	ErrPrecondition = errors.New("precondition failed")
	// ErrCredentials is returned when a credentials file is not a usable service account key
	ErrCredentials = errors.New("invalid service account credentials")
)

// Step names reported by the bootstrap operations
const (
	StepCredentials = "credentials"
	StepVars        = "variables"
	StepKeyPair     = "keypair"
)

// StepResult reports what a bootstrap step did
type StepResult struct {
	Step    string `json:"step"`
	Path    string `json:"path"`
	Skipped bool   `json:"skipped"`
}

// Environment owns the credentials, variables file and keypair under an environment root
type Environment struct {
	paths   config.Paths
	keyBits int
	display *display.Display
	log     logrus.FieldLogger
}

// Option configures an Environment
type Option func(*Environment)

// WithKeyBits overrides the RSA modulus size of generated keys
func WithKeyBits(bits int) Option {
	return func(e *Environment) { e.keyBits = bits }
}

// New creates an Environment for paths
func New(paths config.Paths, d *display.Display, log logrus.FieldLogger, opts ...Option) *Environment {
	e := &Environment{
		paths:   paths,
		keyBits: keygen.DefaultBits,
		display: d,
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Paths returns the layout the environment manages
func (e *Environment) Paths() config.Paths {
	return e.paths
}

// ValidateCredentials checks that data is a GCP service account key and returns its project
func ValidateCredentials(ctx context.Context, data []byte) (string, error) {
	params := google.CredentialsParams{Scopes: []string{cloudPlatformScope}}
	creds, err := google.CredentialsFromJSONWithTypeAndParams(ctx, data, google.ServiceAccount, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return creds.ProjectID, nil
}

// InstallCredentials copies the service account file at src into the environment. The copy is
// skipped when the target exists unless force is set. The returned project is read from the
// source file whenever it is validated.
func (e *Environment) InstallCredentials(ctx context.Context, src string, force bool) (StepResult, string, error) {
	res := StepResult{Step: StepCredentials, Path: e.paths.Credentials}
	if src != "" {
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			return res, "", fmt.Errorf("%w: service account file %s does not exist", ErrPrecondition, src)
		}
	}
	if !force && exists(e.paths.Credentials) {
		e.display.Warning("Service account file already exists at %s", e.paths.Credentials)
		res.Skipped = true
		return res, "", nil
	}
	if src == "" {
		return res, "", fmt.Errorf("%w: service account file is required", ErrPrecondition)
	}

	// #nosec G304 -- src is the operator supplied service account file
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, "", fmt.Errorf("%w: service account file %s does not exist", ErrPrecondition, src)
		}
		return res, "", fmt.Errorf("failed to read service account file: %w", err)
	}

	project, err := ValidateCredentials(ctx, data)
	if err != nil {
		return res, "", err
	}

	if err := writeFile(e.paths.Credentials, data, 0600); err != nil {
		return res, "", err
	}
	e.log.WithField("path", e.paths.Credentials).Info("Copied service account file")
	e.display.Success("Service account file copied to %s", e.paths.Credentials)
	return res, project, nil
}

// WriteVars writes the provisioning variables file declaring project. The write is skipped
// when the file exists unless force is set.
func (e *Environment) WriteVars(project string, force bool) (StepResult, error) {
	res := StepResult{Step: StepVars, Path: e.paths.VarsFile}
	if !force && exists(e.paths.VarsFile) {
		e.display.Warning("Variables file already exists at %s", e.paths.VarsFile)
		res.Skipped = true
		return res, nil
	}
	if project == "" {
		return res, fmt.Errorf("%w: project id is required", ErrPrecondition)
	}
	if err := writeFile(e.paths.VarsFile, provisioning.RenderVars(project), 0600); err != nil {
		return res, err
	}
	e.log.WithFields(logrus.Fields{"path": e.paths.VarsFile, "project": project}).Info("Wrote variables file")
	e.display.Success("Variables file written to %s", e.paths.VarsFile)
	return res, nil
}

// EnsureKeyPair generates the SSH keypair. Generation is skipped when the private key exists
// unless force is set.
func (e *Environment) EnsureKeyPair(force bool) (StepResult, error) {
	res := StepResult{Step: StepKeyPair, Path: e.paths.PrivateKey}
	if !force && exists(e.paths.PrivateKey) {
		e.display.Warning("SSH key already exists at %s", e.paths.PrivateKey)
		res.Skipped = true
		return res, nil
	}

	stop := e.display.Spin("Generating SSH key")
	err := keygen.Generate(e.paths.PrivateKey, e.keyBits)
	stop()
	if err != nil {
		return res, err
	}
	e.log.WithFields(logrus.Fields{"path": e.paths.PrivateKey, "bits": e.keyBits}).Info("Generated SSH keypair")
	e.display.Success("SSH key generated at %s", e.paths.PrivateKey)
	return res, nil
}

// Check is one preflight expectation
type Check struct {
	Name string `json:"name"`
	Path string `json:"path"`
	OK   bool   `json:"ok"`
}

// Preflight reports which of the files apply needs are present
func (e *Environment) Preflight() []Check {
	checks := []Check{
		{Name: "service account", Path: e.paths.Credentials},
		{Name: "variables file", Path: e.paths.VarsFile},
		{Name: "ssh private key", Path: e.paths.PrivateKey},
		{Name: "playbook", Path: e.paths.Playbook},
	}
	for i := range checks {
		checks[i].OK = exists(checks[i].Path)
	}
	return checks
}

// Ready returns an ErrPrecondition error naming the first missing file, if any
func Ready(checks []Check) error {
	for _, c := range checks {
		if !c.OK {
			return fmt.Errorf("%w: %s not found at %s", ErrPrecondition, c.Name, c.Path)
		}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
