package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/curtiswilkinson/roomservice/internal/shell"
)

var (
	// fatih/color disables these automatically when output is not a TTY
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgMagenta, color.Bold)
	labelColor   = color.New(color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// arrow prefixes every room line.
var arrow = labelColor.Sprint("==>")

// PrintBanner prints a phase banner
func PrintBanner(w io.Writer, title string) {
	_, _ = headerColor.Fprintln(w, title)
}

// PrintRoom prints a room line with a colored status badge
func PrintRoom(w io.Writer, badge string, clr *color.Color, name string) {
	_, _ = fmt.Fprintf(w, "%s %s %s\n", arrow, clr.Sprintf("[%s]", badge), name)
}

// PrintOutput prints captured command output, indented
func PrintOutput(w io.Writer, label string, data []byte) {
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return
	}
	_, _ = dimColor.Fprintf(w, "  %s:\n", label)
	for _, line := range strings.Split(text, "\n") {
		_, _ = fmt.Fprintf(w, "    %s\n", line)
	}
}

// PrintWatching prints the idle message of watch mode
func PrintWatching(w io.Writer) {
	_, _ = dimColor.Fprintln(w, "\nWatching for changes...")
}

// consoleReporter prints run progress. Hook events arrive concurrently, so
// every write holds the mutex to keep a hook's lines together.
type consoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsoleReporter(out io.Writer) *consoleReporter {
	return &consoleReporter{out: out}
}

func (r *consoleReporter) Diffing(updateOnly bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if updateOnly {
		PrintBanner(r.out, "Updating all rooms")
		return
	}
	PrintBanner(r.out, "Diffing rooms")
}

func (r *consoleReporter) UpToDate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = successColor.Fprintln(r.out, "All rooms appear to be up to date!")
}

func (r *consoleReporter) Changed(rooms []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out, "The following rooms have changed:")
	for _, name := range rooms {
		_, _ = fmt.Fprintf(r.out, "%s %s\n", arrow, name)
	}
}

func (r *consoleReporter) PhaseStarted(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out)
	PrintBanner(r.out, "Executing "+phase)
}

func (r *consoleReporter) HookStarted(name, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	PrintRoom(r.out, "Starting", infoColor, name)
}

func (r *consoleReporter) HookSucceeded(name, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	PrintRoom(r.out, "Completed", successColor, name)
}

func (r *consoleReporter) HookFailed(name, phase string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	PrintRoom(r.out, "Error", errorColor, name)

	var cmdErr *shell.CommandError
	if errors.As(err, &cmdErr) {
		_, _ = dimColor.Fprintf(r.out, "  %s (exit status %d)\n", cmdErr.Command, cmdErr.ExitCode)
		PrintOutput(r.out, "stdout", cmdErr.Stdout)
		PrintOutput(r.out, "stderr", cmdErr.Stderr)
		return
	}
	_, _ = dimColor.Fprintf(r.out, "  %v\n", err)
}

func (r *consoleReporter) Summary(errored []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(errored) == 0 {
		return
	}
	_, _ = fmt.Fprintln(r.out)
	_, _ = errorColor.Fprintln(r.out, "Errors occurred during roomservice")
	for _, name := range errored {
		_, _ = fmt.Fprintf(r.out, "%s %s\n", arrow, name)
	}
}
