// Package config loads the gcpiac configuration from defaults, a YAML file and the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/celestiaorg/gcpiac/internal/constants"
)

// DefaultConfigFile is looked up in the working directory when no file is given
const DefaultConfigFile = "gcpiac.yaml"

// Engine names
const (
	// EngineTerraform drives the terraform (or tofu) CLI
	EngineTerraform = "terraform"
	// EnginePulumi drives a Pulumi project through the automation API
	EnginePulumi = "pulumi"
)

// Database drivers
const (
	// DriverSQLite stores run history in a local file
	DriverSQLite = "sqlite"
	// DriverPostgres stores run history in PostgreSQL
	DriverPostgres = "postgres"
	// DriverNone disables run history
	DriverNone = "none"
)

// Config is the full gcpiac configuration
type Config struct {
	Root      string          `yaml:"root"`
	Engine    string          `yaml:"engine"`
	Terraform TerraformConfig `yaml:"terraform"`
	Pulumi    PulumiConfig    `yaml:"pulumi"`
	Ansible   AnsibleConfig   `yaml:"ansible"`
	Readiness ReadinessConfig `yaml:"readiness"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Listen    string          `yaml:"listen"`
}

// TerraformConfig configures the terraform engine
type TerraformConfig struct {
	Binary   string `yaml:"binary"`    // terraform or tofu
	Dir      string `yaml:"dir"`       // working directory, relative to root
	PlanFile string `yaml:"plan_file"` // destroy plan artifact, relative to Dir
}

// PulumiConfig configures the pulumi engine
type PulumiConfig struct {
	Stack        string `yaml:"stack"`
	Dir          string `yaml:"dir"`           // Pulumi project directory, relative to root
	InstanceType string `yaml:"instance_type"` // resource type treated as a provisioned instance
}

// AnsibleConfig configures the configuration engine
type AnsibleConfig struct {
	Dir         string          `yaml:"dir"`      // relative to root
	Playbook    string          `yaml:"playbook"` // relative to Dir
	Interpreter string          `yaml:"interpreter"`
	Inventory   InventoryConfig `yaml:"inventory"`
}

// InventoryConfig selects how a workspace inventory is rendered
type InventoryConfig struct {
	Layout   string `yaml:"layout"`   // host or keyed
	Template string `yaml:"template"` // optional template file, overrides Layout
	User     string `yaml:"user"`     // ansible_user for the keyed layout
}

// ReadinessConfig bounds the wait for the instance to accept connections
type ReadinessConfig struct {
	Port        int           `yaml:"port"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// DatabaseConfig configures run history persistence
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Root:   ".",
		Engine: EngineTerraform,
		Terraform: TerraformConfig{
			Binary:   "terraform",
			Dir:      "terraform",
			PlanFile: "destroy.tfplan",
		},
		Pulumi: PulumiConfig{
			Stack:        "dev",
			Dir:          "pulumi",
			InstanceType: "gcp:compute/instance:Instance",
		},
		Ansible: AnsibleConfig{
			Dir:         "ansible",
			Playbook:    filepath.Join("playbooks", "install_docker_and_deploy_nginx.yml"),
			Interpreter: "/usr/bin/python3",
			Inventory: InventoryConfig{
				Layout: "host",
				User:   "ansible",
			},
		},
		Readiness: ReadinessConfig{
			Port:        22,
			Timeout:     5 * time.Second,
			MaxAttempts: 12,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Listen: ":8080",
	}
}

// Load builds the configuration. An explicit path must exist; without one, GCPIAC_CONFIG and
// then ./gcpiac.yaml are tried and silently skipped when absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = GetEnv(constants.EnvConfigFile, DefaultConfigFile)
		explicit = path != DefaultConfigFile
	}

	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", cfg.Root, err)
	}
	cfg.Root = root
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	// #nosec G304 -- the config path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Root = GetEnv(constants.EnvRoot, c.Root)
	c.Engine = GetEnv(constants.EnvEngine, c.Engine)
	c.Terraform.Binary = GetEnv(constants.EnvTerraformBinary, c.Terraform.Binary)
	c.Pulumi.Stack = GetEnv(constants.EnvPulumiStack, c.Pulumi.Stack)
	c.Database.Driver = GetEnv(constants.EnvDBDriver, c.Database.Driver)
	c.Database.DSN = GetEnv(constants.EnvDBDSN, c.Database.DSN)
	c.Listen = GetEnv(constants.EnvListen, c.Listen)
	c.Readiness.Port = GetEnvInt(constants.EnvReadyPort, c.Readiness.Port)
	c.Readiness.Timeout = GetEnvDuration(constants.EnvReadyTimeout, c.Readiness.Timeout)
	c.Readiness.MaxAttempts = GetEnvInt(constants.EnvReadyAttempts, c.Readiness.MaxAttempts)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineTerraform, EnginePulumi:
	default:
		return fmt.Errorf("unknown engine %q (expected %s or %s)", c.Engine, EngineTerraform, EnginePulumi)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverNone:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Readiness.Port <= 0 || c.Readiness.Port > 65535 {
		return fmt.Errorf("readiness port %d is out of range", c.Readiness.Port)
	}
	if c.Readiness.Timeout <= 0 {
		return fmt.Errorf("readiness timeout must be positive")
	}
	if c.Readiness.MaxAttempts <= 0 {
		return fmt.Errorf("readiness max_attempts must be positive")
	}
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	return nil
}

// Paths returns the fixed filesystem layout derived from the configuration
func (c *Config) Paths() Paths {
	envDir := filepath.Join(c.Root, "env")
	keysDir := filepath.Join(envDir, "keys")
	tfDir := c.resolve(c.Terraform.Dir)
	ansibleDir := c.resolve(c.Ansible.Dir)

	return Paths{
		Root:          c.Root,
		EnvDir:        envDir,
		KeysDir:       keysDir,
		Credentials:   filepath.Join(keysDir, ".sa.json"),
		VarsFile:      filepath.Join(envDir, "env.tfvars"),
		PrivateKey:    filepath.Join(keysDir, ".ansible_rsa"),
		HistoryDB:     filepath.Join(envDir, "history.db"),
		TerraformDir:  tfDir,
		PlanFile:      filepath.Join(tfDir, c.Terraform.PlanFile),
		PulumiDir:     c.resolve(c.Pulumi.Dir),
		AnsibleDir:    ansibleDir,
		AnsibleConfig: filepath.Join(ansibleDir, "ansible.cfg"),
		Playbook:      filepath.Join(ansibleDir, c.Ansible.Playbook),
		ClientsDir:    filepath.Join(ansibleDir, "clients"),
	}
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Paths is the on-disk layout of an environment
type Paths struct {
	Root          string
	EnvDir        string
	KeysDir       string
	Credentials   string // copied service account file
	VarsFile      string // provisioning variables file
	PrivateKey    string // generated SSH private key, public key at PrivateKey + ".pub"
	HistoryDB     string
	TerraformDir  string
	PlanFile      string
	PulumiDir     string
	AnsibleDir    string
	AnsibleConfig string
	Playbook      string
	ClientsDir    string // per-instance workspaces
}

// PublicKey is the path of the generated public key
func (p Paths) PublicKey() string {
	return p.PrivateKey + ".pub"
}
