package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/celestiaorg/gcpiac/internal/command"
	"github.com/celestiaorg/gcpiac/internal/config"
	"github.com/celestiaorg/gcpiac/internal/configuration"
	"github.com/celestiaorg/gcpiac/internal/db"
	"github.com/celestiaorg/gcpiac/internal/db/repos"
	"github.com/celestiaorg/gcpiac/internal/environment"
	"github.com/celestiaorg/gcpiac/internal/events"
	"github.com/celestiaorg/gcpiac/internal/history"
	"github.com/celestiaorg/gcpiac/internal/metrics"
	"github.com/celestiaorg/gcpiac/internal/orchestrator"
	"github.com/celestiaorg/gcpiac/internal/provisioning"
	"github.com/celestiaorg/gcpiac/internal/readiness"
	"github.com/celestiaorg/gcpiac/internal/workspace"
)

// runtime is every component a local workflow runs with, built once per command
type runtime struct {
	orchestrator *orchestrator.Orchestrator
	workspaces   *workspace.Manager
	metrics      *metrics.Metrics
	runs         *repos.RunRepository // nil when history is disabled
	db           *gorm.DB
}

// newRuntime wires the components from the loaded configuration
func (c *cli) newRuntime(opts orchestrator.Options) (*runtime, error) {
	cfg := c.cfg
	paths := cfg.Paths()

	runner := command.NewRunner(c.log)
	engine, err := provisioning.New(cfg, runner, c.display, c.log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	checker := readiness.NewProber(readiness.Options{
		Port:        cfg.Readiness.Port,
		Timeout:     cfg.Readiness.Timeout,
		MaxAttempts: cfg.Readiness.MaxAttempts,
	}, c.display, c.log, readiness.WithAttemptHook(m.ObserveReadinessAttempt))

	workspaces, err := c.newWorkspaceManager()
	if err != nil {
		return nil, err
	}

	ansibleOpts := configuration.AnsibleOptions{
		Interpreter:    cfg.Ansible.Interpreter,
		PrivateKeyFile: paths.PrivateKey,
	}
	if _, err := os.Stat(paths.AnsibleConfig); err == nil {
		ansibleOpts.ConfigFile = paths.AnsibleConfig
	}
	configurator, err := configuration.New(configuration.TypeAnsible, ansibleOpts, configuration.Deps{
		Runner:  runner,
		Display: c.display,
		Log:     c.log,
	})
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(c.log)
	m.Subscribe(bus)

	rt := &runtime{workspaces: workspaces, metrics: m}
	if err := c.openHistory(rt, bus); err != nil {
		return nil, err
	}

	opts.Playbook = paths.Playbook
	rt.orchestrator, err = orchestrator.New(orchestrator.Deps{
		Engine:       engine,
		Checker:      checker,
		Workspaces:   workspaces,
		Configurator: configurator,
		Environment:  environment.New(paths, c.display, c.log),
		Bus:          bus,
		Display:      c.display,
		Log:          c.log,
	}, opts)
	if err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func (c *cli) newWorkspaceManager() (*workspace.Manager, error) {
	cfg := c.cfg
	tmpl := cfg.Ansible.Inventory.Template
	if tmpl != "" && !filepath.IsAbs(tmpl) {
		tmpl = filepath.Join(cfg.Root, tmpl)
	}
	paths := cfg.Paths()
	return workspace.NewManager(paths.ClientsDir, workspace.InventoryOptions{
		Layout:       cfg.Ansible.Inventory.Layout,
		TemplateFile: tmpl,
		User:         cfg.Ansible.Inventory.User,
		KeyPath:      paths.PrivateKey,
	}, c.log)
}

// openHistory connects the run history and records every run published on bus
func (c *cli) openHistory(rt *runtime, bus *events.Bus) error {
	gdb, err := c.openDB()
	if err != nil || gdb == nil {
		return err
	}
	rt.db = gdb
	rt.runs = repos.NewRunRepository(gdb)
	history.NewRecorder(rt.runs, c.log).Subscribe(bus)
	return nil
}

// openDB returns nil without an error when history is disabled
func (c *cli) openDB() (*gorm.DB, error) {
	dbCfg := c.cfg.Database
	if dbCfg.Driver == config.DriverNone {
		return nil, nil
	}
	dsn := dbCfg.DSN
	if dbCfg.Driver == config.DriverSQLite && dsn == "" {
		dsn = c.cfg.Paths().HistoryDB
	}
	gdb, err := db.New(db.Options{
		Driver: dbCfg.Driver,
		DSN:    dsn,
		Log:    c.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return gdb, nil
}

func (rt *runtime) close() {
	if rt.db != nil {
		_ = db.Close(rt.db)
	}
}
