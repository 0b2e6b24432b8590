package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/course-backoffice/internal/auth"
)

type adminOut struct {
	ID        string    `yaml:"id"`
	Username  string    `yaml:"username"`
	Email     string    `yaml:"email"`
	FullName  string    `yaml:"full_name,omitempty"`
	Status    string    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		fullName, _ := cmd.Flags().GetString("full-name")
		password, _ := cmd.Flags().GetString("password")

		if password == "" {
			var err error
			if password, err = promptPassword(); err != nil {
				return err
			}
		}

		adm, err := app.accounts.CreateAdmin(cmd.Context(), auth.CreateAdminInput{
			Username: username,
			Email:    email,
			Password: password,
			FullName: fullName,
		})
		if err != nil {
			return describe(err)
		}
		out, err := yaml.Marshal(adminOut{
			ID:        adm.ID,
			Username:  adm.Username,
			Email:     adm.Email,
			FullName:  adm.FullName,
			Status:    string(adm.Status),
			CreatedAt: adm.CreatedAt,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	createAdminCmd.Flags().String("username", "", "administrator username (required)")
	createAdminCmd.Flags().String("email", "", "administrator email (required)")
	createAdminCmd.Flags().String("full-name", "", "display name")
	createAdminCmd.Flags().String("password", "", "password; prompted when omitted")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass --password")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}
	if string(pw) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

// describe turns a core error into the message an operator should see.
func describe(err error) error {
	_, msg, details := auth.Describe(err)
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}
	if auth.KindOf(err) == auth.KindInternal {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return errors.New(msg)
}
