package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/agenthub-labs/agenthub/internal/update"
	"github.com/spf13/cobra"
)

var (
	installedUpdates bool
	installedJSON    bool
)

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "List installed artifacts",
	Long: `List every installed artifact with its version and install path.
With --updates, each row is checked against the catalog index and
annotated with the newer version when one is available.`,
	RunE: runInstalled,
}

func init() {
	installedCmd.Flags().BoolVar(&installedUpdates, "updates", false, "Annotate rows with available updates")
	installedCmd.Flags().BoolVar(&installedJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(installedCmd)
}

func runInstalled(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var updates []update.Info
	if installedUpdates {
		if updates, err = app.updates.CheckForUpdates(cmd.Context(), app.authFor); err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}
	}

	statuses, err := app.updates.Statuses(updates)
	if err != nil {
		return fmt.Errorf("listing installations: %w", err)
	}
	if len(statuses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No artifacts installed.")
		return nil
	}

	if installedJSON {
		type row struct {
			CatalogID     string `json:"catalogId"`
			ArtifactID    string `json:"artifactId"`
			Name          string `json:"name,omitempty"`
			Version       string `json:"version"`
			Path          string `json:"path"`
			InstalledAt   string `json:"installedAt"`
			LatestVersion string `json:"latestVersion,omitempty"`
			Orphaned      bool   `json:"orphaned,omitempty"`
		}
		rows := make([]row, 0, len(statuses))
		for _, s := range statuses {
			r := row{
				CatalogID:     s.CatalogID,
				ArtifactID:    s.ArtifactID,
				Version:       s.Version,
				Path:          s.InstalledPath,
				InstalledAt:   s.InstalledAt.Format("2006-01-02 15:04"),
				LatestVersion: s.NewVersion,
				Orphaned:      s.Artifact == nil,
			}
			if s.Artifact != nil {
				r.Name = s.Artifact.Name
			}
			rows = append(rows, r)
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CATALOG\tID\tVERSION\tINSTALLED\tPATH")
	for _, s := range statuses {
		version := s.Version
		if s.UpdateAvailable {
			version += " (" + s.NewVersion + " available)"
		}
		if s.Artifact == nil {
			version += " (no longer in catalog)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.CatalogID, s.ArtifactID, version,
			s.InstalledAt.Format("2006-01-02"), s.InstalledPath)
	}
	return w.Flush()
}
