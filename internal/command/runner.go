// Package command runs external tools and reports their outcome as a Result
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Command describes a subprocess invocation
type Command struct {
	Name string   // binary to execute, resolved through PATH
	Args []string // arguments, passed verbatim without a shell
	Dir  string   // working directory, empty for the current one
	Env  []string // extra KEY=VALUE pairs appended to the process environment
}

// String renders the command line for logs
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the uniform outcome of a subprocess
type Result struct {
	Stdout   string
	OK       bool
	Error    string
	ExitCode int
}

// Option tweaks how a failure or output is reported
type Option func(*runOptions)

type runOptions struct {
	suppressErrors bool
	logOutput      bool
}

// SuppressErrors marks a non-zero exit as expected: nothing is logged and stdout is kept
func SuppressErrors() Option {
	return func(o *runOptions) { o.suppressErrors = true }
}

// LogOutput logs stdout of a successful command at info level
func LogOutput() Option {
	return func(o *runOptions) { o.logOutput = true }
}

// Executor runs commands
type Executor interface {
	Run(ctx context.Context, cmd Command, opts ...Option) Result
}

// Runner is the os/exec backed Executor
type Runner struct {
	log logrus.FieldLogger
}

var _ Executor = (*Runner)(nil)

// NewRunner creates a Runner logging to log
func NewRunner(log logrus.FieldLogger) *Runner {
	return &Runner{log: log}
}

// Run executes cmd and waits for it to finish
func (r *Runner) Run(ctx context.Context, cmd Command, opts ...Option) Result {
	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	// #nosec G204 -- commands are built by the adapters from configuration, never from remote input
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	if err != nil {
		res := Result{
			OK:       false,
			Error:    strings.TrimSpace(stderr.String()),
			ExitCode: exitCode(err),
		}
		if res.Error == "" {
			res.Error = err.Error()
		}
		if o.suppressErrors {
			res.Stdout = stdout.String()
			return res
		}
		r.log.WithFields(logrus.Fields{
			"command":   cmd.String(),
			"exit_code": res.ExitCode,
		}).Errorf("Command failed: %s", res.Error)
		return res
	}

	res := Result{Stdout: stdout.String(), OK: true}
	if o.logOutput {
		r.log.WithField("command", cmd.String()).Infof("Output: %s", res.Stdout)
	}
	return res
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
