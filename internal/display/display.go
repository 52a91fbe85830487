// Package display renders operator-facing progress messages, tables and spinners
package display

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Display writes coloured status lines to a sink. The zero value writes to stdout.
type Display struct {
	out         io.Writer
	interactive bool
	mu          sync.Mutex
}

// New creates a Display writing to out. Spinners are only shown when interactive is true.
func New(out io.Writer, interactive bool) *Display {
	if out == nil {
		out = os.Stdout
	}
	return &Display{out: out, interactive: interactive}
}

// Discard returns a Display that drops everything
func Discard() *Display {
	return New(io.Discard, false)
}

func (d *Display) writer() io.Writer {
	if d == nil || d.out == nil {
		return os.Stdout
	}
	return d.out
}

func (d *Display) println(color text.Color, msg string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = fmt.Fprintln(d.writer(), color.Sprint(msg))
}

// Success prints a green message
func (d *Display) Success(format string, args ...interface{}) {
	d.println(text.FgGreen, fmt.Sprintf(format, args...))
}

// Warning prints a yellow message
func (d *Display) Warning(format string, args ...interface{}) {
	d.println(text.FgYellow, fmt.Sprintf(format, args...))
}

// Failure prints a red message
func (d *Display) Failure(format string, args ...interface{}) {
	d.println(text.FgRed, fmt.Sprintf(format, args...))
}

// Info prints a cyan message
func (d *Display) Info(format string, args ...interface{}) {
	d.println(text.FgHiCyan, fmt.Sprintf(format, args...))
}

// Spin shows a spinner with msg until the returned stop function is called
func (d *Display) Spin(msg string) (stop func()) {
	if d == nil || !d.interactive {
		d.Info("%s", msg)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(d.writer()))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}

// Table renders rows under header using the rounded style
func (d *Display) Table(header []interface{}, rows [][]interface{}) {
	if d == nil {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(d.writer())
	t.SetStyle(table.StyleRounded)

	colored := make(table.Row, 0, len(header))
	for _, h := range header {
		colored = append(colored, text.FgHiCyan.Sprint(h))
	}
	t.AppendHeader(colored)
	for _, r := range rows {
		t.AppendRow(r)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	t.Render()
}
