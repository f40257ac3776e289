package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curtiswilkinson/roomservice/internal/watch"
)

func newWatchCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run, then run again whenever files in a room change",
		Long: `Run roomservice once, then watch every participating room and run again
after changes settle. Accepts the same flags as a normal run.

Failed runs are reported and watching continues. Press Ctrl-C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			req := opts.request()
			if err := req.Validate(app.registry); err != nil {
				return err
			}

			w := watch.New(app.roomPaths(req), watch.DefaultDebounce, app.logger)
			return w.Run(cmd.Context(), func(ctx context.Context) error {
				if err := app.run(ctx, req); err != nil {
					if ctx.Err() != nil {
						return err
					}
					_, _ = fmt.Fprintln(app.out, formatError(err))
				}
				PrintWatching(app.out)
				return nil
			})
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}
