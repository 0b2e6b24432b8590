package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var purgeTokensCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete refresh tokens that expired before now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := app.refresh.PurgeExpired(cmd.Context(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("purge expired tokens: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired refresh tokens\n", n)
		return nil
	},
}
