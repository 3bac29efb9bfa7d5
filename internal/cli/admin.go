package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gmatprep/internal/config"
	"github.com/gmatprep/internal/db"
)

var errPasswordRequired = errors.New("password is required: pass --password or set SUPER_ROOT_PASSWORD")

func newAdminCommand() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var password string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an admin account or reset its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if password == "" {
				password = cfg.SuperRootPassword
			}
			if password == "" {
				return errPasswordRequired
			}

			if err := db.Init(cfg.DatabasePath); err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			username := strings.TrimSpace(args[0])
			if err := db.SetPassword(db.DB, username, password); err != nil {
				return fmt.Errorf("save admin %s: %w", username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s saved to %s\n", username, cfg.DatabasePath)
			return nil
		},
	}
	create.Flags().StringVarP(&password, "password", "p", "", "password for the account (default SUPER_ROOT_PASSWORD)")

	admin.AddCommand(create)
	return admin
}
