// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvConfigFile points at the YAML configuration file
	EnvConfigFile = "GCPIAC_CONFIG"

	// EnvRoot is the environment root holding env/, terraform/ and ansible/
	EnvRoot = "GCPIAC_ROOT"

	// EnvEngine selects the provisioning engine (terraform or pulumi)
	EnvEngine = "GCPIAC_ENGINE"

	// EnvTerraformBinary overrides the terraform binary (e.g. tofu)
	EnvTerraformBinary = "GCPIAC_TERRAFORM_BINARY"

	// EnvPulumiStack is the Pulumi stack name
	EnvPulumiStack = "GCPIAC_PULUMI_STACK"

	// EnvDBDriver selects the history database driver (sqlite or postgres)
	EnvDBDriver = "GCPIAC_DB_DRIVER"

	// EnvDBDSN is the history database connection string
	EnvDBDSN = "GCPIAC_DB_DSN"

	// EnvListen is the listen address for the HTTP surface
	EnvListen = "GCPIAC_LISTEN"

	// EnvServer is the address of a remote gcpiac server the CLI talks to instead of running
	// workflows locally
	EnvServer = "GCPIAC_SERVER"

	// EnvReadyPort is the port probed before configuration
	EnvReadyPort = "GCPIAC_READY_PORT"

	// EnvReadyTimeout is the per-attempt readiness timeout (e.g. "5s")
	EnvReadyTimeout = "GCPIAC_READY_TIMEOUT"

	// EnvReadyAttempts is the readiness attempt budget
	EnvReadyAttempts = "GCPIAC_READY_ATTEMPTS"
)

// Environment variables handed to ansible-playbook
const (
	// EnvAnsibleConfig is the path to ansible.cfg
	EnvAnsibleConfig = "ANSIBLE_CONFIG"

	// EnvAnsiblePythonInterpreter is the interpreter used on the target host
	EnvAnsiblePythonInterpreter = "ANSIBLE_PYTHON_INTERPRETER"

	// EnvAnsiblePrivateKeyFile is the private key used to authenticate
	EnvAnsiblePrivateKeyFile = "ANSIBLE_PRIVATE_KEY_FILE"
)
