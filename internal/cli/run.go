package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retail-sdw/sdwload/internal/datasets"
	"github.com/retail-sdw/sdwload/internal/db"
	"github.com/retail-sdw/sdwload/internal/logging"
	"github.com/retail-sdw/sdwload/internal/services"
	"github.com/retail-sdw/sdwload/internal/tui"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// registry holds the datasets the CLI can load.
var registry = datasets.Retail()

// newLoadService wires the production dependencies. Completion messages
// go to stdout, diagnostics to stderr. The spinner is only shown in an
// interactive terminal and never together with verbose output.
func newLoadService(verbose bool) *services.LoadService {
	var logger sdwload.Logger = logging.NewSplitConsoleLogger(os.Stdout, os.Stderr, verbose)

	var progress services.Progress
	if !verbose && tui.IsInteractive() {
		display := tui.NewProgressDisplay(os.Stdout, true)
		logger = display.Logger(logger)
		progress = display
	}

	return services.NewLoadService(db.NewConnector, registry, logger, progress)
}

// runWithSignals runs fn under the run timeout, cancelling it on
// SIGINT or SIGTERM so the open transaction is rolled back.
func runWithSignals(timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, rolling back...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return fn(ctx)
}

func printResults(results []sdwload.LoadResult) {
	for _, r := range results {
		fmt.Fprintf(os.Stderr, "[VERBOSE] %s", tui.FormatResult(r))
		if r.SourceDigest != "" {
			fmt.Fprintf(os.Stderr, " source=%s xxh3=%s", r.Source, r.SourceDigest)
		}
		fmt.Fprintf(os.Stderr, " run=%s\n", r.RunID)
	}
}
