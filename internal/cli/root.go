// Package cli wires the gmatprep commands: serving the site, checking a
// content tree and managing admin accounts.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Running it without a subcommand
// serves the site.
func NewRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:          "gmatprep",
		Short:        "GMAT prep lesson site",
		Long:         "Serves the GMAT prep lessons from a directory of Markdown files.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newCheckCommand(), newAdminCommand())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}
