package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/curtiswilkinson/roomservice/internal/engine"
)

// runOptions holds the flags shared by the root and watch commands.
type runOptions struct {
	project          string
	force            bool
	only             []string
	ignore           []string
	afterOnly        bool
	noAfter          bool
	dry              bool
	dumpScope        bool
	updateHashesOnly bool
	verbose          bool
	jobs             int
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.project, "project", "p", "", "Config file, or directory to search upward from")
	flags.BoolVarP(&opts.force, "force", "f", false, "Treat every room as changed")
	flags.StringSliceVar(&opts.only, "only", nil, "Only consider these rooms (comma-separated)")
	flags.StringSliceVar(&opts.ignore, "ignore", nil, "Skip these rooms (comma-separated)")
	flags.BoolVar(&opts.afterOnly, "after", false, "Only run the after hooks of changed rooms")
	flags.BoolVar(&opts.noAfter, "no-after", false, "Skip the after hooks")
	flags.BoolVarP(&opts.dry, "dry", "d", false, "Report changed rooms without running any hook")
	flags.BoolVar(&opts.dumpScope, "dump-scope", false, "Write the files hashed for each room to .roomservice/<room>.scope")
	flags.BoolVar(&opts.updateHashesOnly, "update-hashes", false, "Record current fingerprints without running any hook")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Maximum concurrent room tasks per phase (0 = unlimited)")
}

// request converts the flags into an engine request.
func (o *runOptions) request() *engine.RunRequest {
	return &engine.RunRequest{
		Force:            o.force,
		Only:             cleanNames(o.only),
		Ignore:           cleanNames(o.ignore),
		AfterOnly:        o.afterOnly,
		NoAfter:          o.noAfter,
		Dry:              o.dry,
		DumpScope:        o.dumpScope,
		UpdateHashesOnly: o.updateHashesOnly,
		Jobs:             o.jobs,
	}
}

// cleanNames trims room names and drops empty ones, so "a, b," is {a, b}.
func cleanNames(names []string) []string {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// runOnce performs a single run and prints its timing.
func runOnce(ctx context.Context, out io.Writer, opts *runOptions) error {
	app, err := newApp(opts, out)
	if err != nil {
		return err
	}
	return app.run(ctx, opts.request())
}

// run executes one engine run and prints the time taken, also when rooms failed.
func (a *app) run(ctx context.Context, req *engine.RunRequest) error {
	result, err := a.engine.Run(ctx, req)
	if result != nil {
		_, _ = fmt.Fprintf(a.out, "\nTime taken: %ds\n", int(result.Duration.Seconds()))
	}
	return err
}
