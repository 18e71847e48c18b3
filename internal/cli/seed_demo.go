package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/llmreader/internal/demo"
	"github.com/mrlokans/llmreader/internal/entrypoint"
)

func newSeedDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Fill the library with public domain sample books",
		Long: `Writes a few public domain excerpts with tags and highlights into
BOOKS_DIR. Books already present are skipped. Pair with DEMO_MODE=true to
publish a read-only demo instance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := entrypoint.NewApp(loadConfig())
			if err != nil {
				return err
			}

			result, err := demo.Seed(app.Books, app.Highlights, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d books added, %d skipped, %d highlights added\n",
				result.BooksAdded, result.BooksSkipped, result.HighlightsAdded)
			return nil
		},
	}
}
