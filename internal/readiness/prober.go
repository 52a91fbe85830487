// Package readiness waits for a freshly provisioned host to accept connections
package readiness

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/display"
)

// Defaults used when Options fields are zero
const (
	DefaultPort        = 22
	DefaultTimeout     = 5 * time.Second
	DefaultMaxAttempts = 12
)

// Checker defines the interface for checking that a host is reachable
type Checker interface {
	WaitForOpen(ctx context.Context, ip string) bool
}

// Options bounds the wait. Each attempt, dial plus pause, takes at most
// Timeout, so the total wait is at most Timeout * MaxAttempts.
type Options struct {
	Port        int
	Timeout     time.Duration // per-attempt budget shared by the dial and the pause
	MaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// DialFunc opens a connection with a timeout
type DialFunc func(ctx context.Context, address string, timeout time.Duration) (net.Conn, error)

// SleepFunc pauses between attempts; it returns ctx.Err() when interrupted
type SleepFunc func(ctx context.Context, d time.Duration) error

// Prober implements Checker with bounded TCP connect attempts
type Prober struct {
	opts    Options
	dial    DialFunc
	sleep   SleepFunc
	display *display.Display
	log     logrus.FieldLogger
	onTry   func(ok bool)
	now     func() time.Time
}

var _ Checker = (*Prober)(nil)

// ProberOption customizes a Prober
type ProberOption func(*Prober)

// WithDialer replaces the TCP dialer
func WithDialer(dial DialFunc) ProberOption {
	return func(p *Prober) { p.dial = dial }
}

// WithSleep replaces the pause between attempts
func WithSleep(sleep SleepFunc) ProberOption {
	return func(p *Prober) { p.sleep = sleep }
}

// WithAttemptHook registers a callback invoked after every connection attempt
func WithAttemptHook(hook func(ok bool)) ProberOption {
	return func(p *Prober) { p.onTry = hook }
}

// NewProber creates a Prober
func NewProber(opts Options, d *display.Display, log logrus.FieldLogger, options ...ProberOption) *Prober {
	p := &Prober{
		opts:    opts.withDefaults(),
		dial:    dialTCP,
		sleep:   sleepContext,
		display: d,
		log:     log,
		now:     time.Now,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Options returns the effective options
func (p *Prober) Options() Options {
	return p.opts
}

// WaitForOpen implements Checker.WaitForOpen
func (p *Prober) WaitForOpen(ctx context.Context, ip string) bool {
	address := net.JoinHostPort(ip, strconv.Itoa(p.opts.Port))
	p.display.Success("Waiting for %s to be open", address)

	remaining := p.opts.MaxAttempts
	for attempt := 1; remaining > 0; attempt++ {
		started := p.now()
		conn, err := p.dial(ctx, address, p.opts.Timeout)
		if err == nil {
			_ = conn.Close()
			p.record(true)
			p.display.Success("%s is open", address)
			return true
		}
		p.record(false)

		p.log.WithFields(logrus.Fields{
			"address": address,
			"attempt": attempt,
		}).Debugf("Connection failed: %v", err)
		pause := p.opts.Timeout - p.now().Sub(started)
		if pause < 0 {
			pause = 0
		}
		p.display.Warning("%s is not open. Retrying in %s (attempt %d/%d)",
			address, pause.Round(time.Millisecond), attempt, p.opts.MaxAttempts)

		if err := p.sleep(ctx, pause); err != nil {
			p.display.Failure("Stopped waiting for %s: %v", address, err)
			return false
		}
		remaining--
	}

	p.display.Failure("Failed to determine if port is open")
	p.log.WithField("address", address).Error("Readiness budget exhausted")
	return false
}

func (p *Prober) record(ok bool) {
	if p.onTry != nil {
		p.onTry(ok)
	}
}

func dialTCP(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", address)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
