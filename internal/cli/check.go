package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmatprep/internal/config"
	"github.com/gmatprep/internal/content"
)

var errContentProblems = errors.New("content has problems")

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate a content tree without serving it",
		Long: `Loads every chapter and lesson under dir (default CONTENT_DIR) and prints
each problem found. Exits non-zero when anything is reported, warnings included.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) == 1 {
				dir = args[0]
			} else {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dir = cfg.ContentDir
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), dir)
		},
	}
}

func runCheck(ctx context.Context, out io.Writer, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("content dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content dir %s is not a directory", dir)
	}

	problems, err := content.Check(ctx, os.DirFS(dir))
	if err != nil {
		return err
	}
	for _, problem := range problems {
		fmt.Fprintln(out, problem.String())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %d found in %s", errContentProblems, len(problems), dir)
	}

	fmt.Fprintf(out, "%s: no problems found\n", dir)
	return nil
}
