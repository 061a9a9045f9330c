package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/entrypoint"
	"github.com/mrlokans/bookinfo/internal/library"
	"github.com/mrlokans/bookinfo/internal/logger"
)

func newSavedCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Inspect saved books",
	}
	cmd.AddCommand(newSavedListCommand(opts))
	return cmd
}

func newSavedListCommand(opts *options) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the books a user has saved, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := entrypoint.NewApp(opts.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.L.Error("Error closing database", zap.Error(err))
				}
			}()

			books, err := app.Library.List(cmd.Context(), userID)
			if err != nil {
				return errors.New(library.Message(err))
			}
			return printSavedBooks(cmd, userID, books)
		},
	}

	cmd.Flags().StringVar(&userID, "user", config.LocalUserID, "Owner of the saved books")
	return cmd
}

func printSavedBooks(cmd *cobra.Command, userID string, books []library.SavedBook) error {
	out := cmd.OutOrStdout()
	if len(books) == 0 {
		_, err := fmt.Fprintf(out, "No saved books for %s.\n", userID)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHORS\tSAVED")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Title, strings.Join(b.Authors, ", "), b.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
