package main

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	fsAdapter "github.com/bft-labs/appship/internal/adapters/fs"
	"github.com/bft-labs/appship/pkg/appship"
)

// newPushCommand creates the push subcommand.
func newPushCommand(root *rootOptions) *cobra.Command {
	var opts appship.PushOptions

	cmd := &cobra.Command{
		Use:   "push [APPDIR] [DEST]",
		Short: "Push an application to a destination",
		Long: `Push an application to one or more databases.

With two arguments the first is the application directory and the second the
destination. With one argument, run from inside an application, the argument
is the destination. DEST is a configured destination name, a database URL or
a database name on the default server; it defaults to "default".`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("working directory: %w", err)
			}
			appDir := fsAdapter.FindAppDir(osfs.New("/"), cwd)

			a, err := root.appship()
			if err != nil {
				return err
			}

			if opts.Watch {
				return a.Watch(cmd.Context(), appDir, args, opts)
			}
			return a.Push(cmd.Context(), appDir, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Export, "export", false, "write the document JSON instead of pushing it")
	cmd.Flags().BoolVar(&opts.NoAtomic, "no-atomic", false, "send attachments one by one after the document")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "file written by --export (default: stdout)")
	cmd.Flags().BoolVarP(&opts.Browse, "browse", "b", false, "open the application in a browser after pushing")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "resend attachments even if unchanged")
	cmd.Flags().StringVar(&opts.DocID, "docid", "", "identifier of the application document")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "push again whenever the application changes")
	cmd.Flags().DurationVar(&root.cfg.WatchDebounce, "watch-debounce", root.cfg.WatchDebounce, "quiet period before a watch push")

	return cmd
}
