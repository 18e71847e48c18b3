package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/llmreader/internal/entrypoint"
	"github.com/mrlokans/llmreader/internal/exporters"
	"github.com/mrlokans/llmreader/internal/scheduler"
	"github.com/mrlokans/llmreader/internal/utils"
)

func newExportCmd() *cobra.Command {
	var (
		output string
		vault  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export highlights as Markdown",
		Long: `Writes every highlight as one Obsidian-style Markdown document, or with
--vault as one note per book into a vault directory.`,
		Example: `  # Single document named highlights-YYYYMMDD.md
  llmreader export

  # Print to stdout
  llmreader export -o -

  # One note per book
  llmreader export --vault ~/Obsidian/Books`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			app, err := entrypoint.NewApp(cfg)
			if err != nil {
				return err
			}

			if vault != "" {
				status := scheduler.NewExportScheduler(scheduler.ExportConfig{
					Enabled:  true,
					Dir:      vault,
					Schedule: cfg.Export.Schedule,
				}, app.Highlights, app.Books).RunNow()
				if status.Err != nil {
					return status.Err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d highlights from %d books to %s\n",
					status.Result.HighlightsProcessed, status.Result.BooksProcessed, vault)
				return nil
			}

			markdown := exporters.GenerateMarkdown(app.Highlights.Load(), app.Books)
			if output == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), markdown)
				return err
			}
			if output == "" {
				output = exporters.ExportFilename(time.Now())
			}
			if err := utils.WriteFileAtomic(output, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file, "-" for stdout (default highlights-YYYYMMDD.md)`)
	cmd.Flags().StringVar(&vault, "vault", "", "Write one note per book into this directory")

	return cmd
}
