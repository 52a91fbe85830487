// Package commands implements the gcpiac command line
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/gcpiac/internal/api/v1/client"
	"github.com/celestiaorg/gcpiac/internal/config"
	"github.com/celestiaorg/gcpiac/internal/constants"
	"github.com/celestiaorg/gcpiac/internal/display"
	"github.com/celestiaorg/gcpiac/internal/logger"
)

// flag names
const (
	flagConfig   = "config"
	flagRoot     = "root"
	flagEngine   = "engine"
	flagLogLevel = "log-level"
	flagServer   = "server"
)

// ErrReported is returned when a failure was already shown to the user
var ErrReported = errors.New("command failed")

// cli holds what the root command resolves before any subcommand runs
type cli struct {
	configFile string
	root       string
	engine     string
	logLevel   string
	server     string

	cfg     *config.Config
	log     *logrus.Logger
	display *display.Display
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "gcpiac",
		Short: "gcpiac - provision and configure a GCP instance",
		Long: `gcpiac applies an infrastructure definition with terraform or pulumi, waits for the new
instance to accept SSH connections and configures it with an ansible playbook. Destroy tears the
infrastructure down and removes the local workspace of every deleted instance.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configFile, flagConfig, "c", "", "Configuration file (env: GCPIAC_CONFIG, default ./gcpiac.yaml)")
	flags.StringVar(&c.root, flagRoot, "", "Environment root holding env/, terraform/ and ansible/ (env: GCPIAC_ROOT)")
	flags.StringVar(&c.engine, flagEngine, "", "Provisioning engine: terraform or pulumi (env: GCPIAC_ENGINE)")
	flags.StringVar(&c.logLevel, flagLogLevel, "", "Log level: trace, debug, info, warn or error (env: LOG_LEVEL)")
	flags.StringVar(&c.server, flagServer, "", "Address of a gcpiac server to run workflows on (env: GCPIAC_SERVER)")

	rootCmd.AddCommand(
		c.newInitCmd(),
		c.newApplyCmd(),
		c.newDestroyCmd(),
		c.newWorkspacesCmd(),
		c.newHistoryCmd(),
		c.newServeCmd(),
	)
	return rootCmd
}

// Execute runs the command line
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads .env, the configuration and the logger. Flags take precedence over the
// environment, which takes precedence over the configuration file.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(c.configFile)
	if err != nil {
		return err
	}
	if c.root != "" {
		root, err := filepath.Abs(c.root)
		if err != nil {
			return fmt.Errorf("failed to resolve root %s: %w", c.root, err)
		}
		cfg.Root = root
	}
	if c.engine != "" {
		cfg.Engine = c.engine
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = cfg

	if !cmd.Flags().Changed(flagServer) {
		c.server = os.Getenv(constants.EnvServer)
	}

	level := c.logLevel
	if level == "" {
		level = os.Getenv(logger.EnvLogLevel)
	}
	if level == "" {
		level = cfg.Log.Level
	}
	c.log = logger.New(logger.Options{
		Level:  level,
		Format: logger.Format(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})

	out := cmd.OutOrStdout()
	c.display = display.New(out, isTerminal(out))
	return nil
}

// remote reports whether workflows run on a server instead of locally
func (c *cli) remote() bool {
	return c.server != ""
}

func (c *cli) newClient() (*client.APIClient, error) {
	opts := client.DefaultOptions()
	opts.BaseURL = c.server
	return client.NewClient(opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
