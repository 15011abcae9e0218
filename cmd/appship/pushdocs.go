package main

import (
	"github.com/spf13/cobra"

	"github.com/bft-labs/appship/pkg/appship"
)

// newPushDocsCommand creates the pushdocs subcommand.
func newPushDocsCommand(root *rootOptions) *cobra.Command {
	var opts appship.PushOptions

	cmd := &cobra.Command{
		Use:   "pushdocs SOURCE DEST",
		Short: "Push a directory of documents",
		Long: `Push every document found directly under SOURCE.

*.json files are pushed as they are, with _id defaulting to the file name.
Subdirectories are pushed as documents built like an application.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.appship()
			if err != nil {
				return err
			}
			_, err = a.PushDocs(cmd.Context(), args[0], args[1], opts)
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.Export, "export", false, "write the documents as JSON instead of pushing them")
	cmd.Flags().BoolVar(&opts.NoAtomic, "no-atomic", false, "send documents one at a time")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "file written by --export (default: stdout)")
	cmd.Flags().BoolVarP(&opts.Browse, "browse", "b", false, "open documents in a browser after pushing")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "resend attachments even if unchanged")

	return cmd
}
