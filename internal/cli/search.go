package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookinfo/internal/catalog"
	"github.com/mrlokans/bookinfo/internal/library"
)

func newSearchCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <title...>",
		Short: "Look up books in the configured catalog",
		Example: `  bookinfo search dune
  CATALOG_PROVIDER=openlibrary bookinfo search --json "good omens"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := catalog.NewProvider(opts.cfg.Catalog)
			if err != nil {
				return err
			}

			// Lookup never touches the store.
			svc := library.NewService(provider, nil)
			books, err := svc.Lookup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return errors.New(library.Message(err))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(books)
			}
			return printCatalogBooks(cmd, provider.Name(), books)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func printCatalogBooks(cmd *cobra.Command, provider string, books []catalog.Book) error {
	out := cmd.OutOrStdout()
	if len(books) == 0 {
		_, err := fmt.Fprintf(out, "No books found in %s.\n", provider)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHORS\tPUBLISHED")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Title, strings.Join(b.Authors, ", "), b.PublishedDate)
	}
	return w.Flush()
}
