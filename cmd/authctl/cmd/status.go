package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/course-backoffice/internal/model"
)

var setStatusCmd = &cobra.Command{
	Use:   "set-status (user|admin) <username|id> (ACTIVE|INACTIVE|LOCKED)",
	Short: "Change the status of a user (by username) or administrator (by id)",
	Long: `Change an account status. Any status other than ACTIVE also revokes
every refresh token of the account.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.AccountStatus(strings.ToUpper(args[2]))
		var err error
		switch strings.ToLower(args[0]) {
		case "user":
			err = app.accounts.SetUserStatus(cmd.Context(), args[1], status)
		case "admin":
			err = app.accounts.SetAdminStatus(cmd.Context(), "", args[1], status)
		default:
			return fmt.Errorf("unknown account type %q, want user or admin", args[0])
		}
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", args[0], args[1], status)
		return nil
	},
}
