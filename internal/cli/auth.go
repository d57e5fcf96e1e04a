package cli

import (
	"fmt"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	authCmd.AddCommand(authSetTokenCmd)
	authCmd.AddCommand(authDeleteTokenCmd)
	rootCmd.AddCommand(authCmd)
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage catalog access tokens",
	Long: `Store and remove access tokens for private catalogs.

Tokens live in ~/.agenthub/secrets.yaml, never in config.yaml; the
subscription only carries a ${secret:KEY} reference that is resolved
when a request is made.`,
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token <catalog-id> <token>",
	Short: "Store a bearer token for a catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		id, token := args[0], args[1]

		secrets := auth.NewFileStore(config.Dir())
		if err := secrets.Set(id, token); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}

		// Point the subscription at the stored secret, if subscribed.
		repos, err := config.Repositories()
		if err != nil {
			return err
		}
		for i := range repos {
			if repos[i].ID != id {
				continue
			}
			repos[i].Auth = &auth.Config{
				Type:  auth.TypeBearer,
				Token: fmt.Sprintf("${secret:%s}", id),
			}
			if err := config.SetRepositories(repos); err != nil {
				return fmt.Errorf("saving subscription: %w", err)
			}
			break
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token stored for catalog %q.\n", id)
		return nil
	},
}

var authDeleteTokenCmd = &cobra.Command{
	Use:   "delete-token <catalog-id>",
	Short: "Remove a stored catalog token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		id := args[0]

		secrets := auth.NewFileStore(config.Dir())
		if err := secrets.Delete(id); err != nil {
			return fmt.Errorf("removing token: %w", err)
		}

		repos, err := config.Repositories()
		if err != nil {
			return err
		}
		for i := range repos {
			if repos[i].ID != id || repos[i].Auth == nil {
				continue
			}
			if auth.SecretRef(repos[i].Auth.Token) == id {
				repos[i].Auth = nil
				if err := config.SetRepositories(repos); err != nil {
					return fmt.Errorf("saving subscription: %w", err)
				}
			}
			break
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token removed for catalog %q.\n", id)
		return nil
	},
}
