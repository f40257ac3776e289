package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/curtiswilkinson/roomservice/internal/hash"
	"github.com/curtiswilkinson/roomservice/internal/logging"
)

type hashResult struct {
	index       int
	fingerprint hash.Fingerprint
	shouldBuild bool
}

// hashRooms fingerprints every room concurrently and decides shouldBuild.
// Results are merged into runs only after every task has finished. The first
// hashing error cancels the remaining tasks and is returned.
func (e *Engine) hashRooms(ctx context.Context, log *slog.Logger, runs []*roomRun, req *RunRequest) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobLimit(req.Jobs))
	results := make(chan hashResult, len(runs))

	for i, run := range runs {
		i := i
		name, path := run.room.Name, run.room.Path
		g.Go(func() error {
			fp, err := e.fingerprinter.Fingerprint(gctx, name, path, req.DumpScope)
			if err != nil {
				return err
			}

			previous, ok := e.store.Previous(name)
			changed := req.Force || !ok || previous != fp
			log.Debug("room fingerprinted",
				logging.Room(name),
				logging.Path(path),
				slog.Bool("previous", ok),
				slog.Bool("changed", changed))

			results <- hashResult{index: i, fingerprint: fp, shouldBuild: changed}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	if err != nil {
		return err
	}

	for res := range results {
		runs[res.index].latest = res.fingerprint
		runs[res.index].shouldBuild = res.shouldBuild
	}
	return nil
}

// jobLimit converts a --jobs value to an errgroup limit.
func jobLimit(jobs int) int {
	if jobs <= 0 {
		return -1
	}
	return jobs
}
