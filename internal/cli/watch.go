package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agenthub-labs/agenthub/internal/config"
	"github.com/agenthub-labs/agenthub/internal/sync"
	"github.com/spf13/cobra"
)

var watchInterval int

var catalogWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep catalogs refreshed in the background",
	Long: `Refresh all subscribed catalogs on the configured interval until
interrupted. The interval comes from the updateInterval setting
(seconds) unless --interval overrides it; autoUpdate=false disables
watching entirely.`,
	Args: cobra.NoArgs,
	RunE: runCatalogWatch,
}

func init() {
	catalogWatchCmd.Flags().IntVar(&watchInterval, "interval", 0, "Refresh interval in seconds (defaults to the updateInterval setting)")
	catalogCmd.AddCommand(catalogWatchCmd)
}

func runCatalogWatch(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !config.AutoUpdate() {
		return fmt.Errorf("autoUpdate is disabled; enable it with 'config set autoUpdate true'")
	}

	seconds := watchInterval
	if seconds <= 0 {
		seconds = config.UpdateInterval()
	}
	interval := time.Duration(seconds) * time.Second

	// Sync once up front so a fresh subscription list is indexed
	// before the first tick.
	repos, err := config.Repositories()
	if err != nil {
		return err
	}
	if errs := app.syncer.RefreshAll(cmd.Context(), repos); len(errs) > 0 {
		for id, err := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "catalog %s: %v\n", id, err)
		}
	}

	scheduler := sync.NewScheduler(app.syncer, config.Repositories, interval)
	scheduler.Start()
	defer scheduler.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d catalogs (every %s). Press Ctrl+C to stop.\n", len(repos), interval)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigs:
	case <-cmd.Context().Done():
	}
	return nil
}
