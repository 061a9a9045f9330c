// Package cli defines the bookinfo command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/entrypoint"
	"github.com/mrlokans/bookinfo/internal/logger"
)

// options is shared by every subcommand. cfg is loaded before any of them runs.
type options struct {
	cfg     *config.Config
	version string
	commit  string
}

// NewRootCommand builds the bookinfo command tree. Without a subcommand it
// serves HTTP.
func NewRootCommand(version, commit string) *cobra.Command {
	opts := &options{version: version, commit: commit}

	root := &cobra.Command{
		Use:           "bookinfo",
		Short:         "Search a book catalog and keep a list of saved books",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.cfg = config.NewConfig()
			if _, err := logger.Init(opts.cfg.Log); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return entrypoint.Run(opts.cfg, opts.version)
		},
	}

	root.AddCommand(
		newServeCommand(opts),
		newSearchCommand(opts),
		newSavedCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return entrypoint.Run(opts.cfg, opts.version)
		},
	}
}

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bookinfo %s (%s)\n", opts.version, opts.commit)
			return err
		},
	}
}
