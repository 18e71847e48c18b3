package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mrlokans/llmreader/internal/entrypoint"
)

func newTagAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag-all <tag>",
		Short: "Add a tag to every book in the library",
		Long: `Adds the given tag to every book that does not carry it yet. The tag is
normalized the same way as tags edited in the UI.`,
		Example: `  llmreader tag-all trading`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := entrypoint.NewApp(loadConfig())
			if err != nil {
				return err
			}

			result, err := app.Tags.AddToAll(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range result.Migrated {
				fmt.Fprintf(out, "tagged   %s\n", id)
			}
			for _, id := range result.Skipped {
				fmt.Fprintf(out, "skipped  %s (already tagged)\n", id)
			}
			failed := make([]string, 0, len(result.Failed))
			for id := range result.Failed {
				failed = append(failed, id)
			}
			sort.Strings(failed)
			for _, id := range failed {
				fmt.Fprintf(out, "failed   %s: %v\n", id, result.Failed[id])
			}
			fmt.Fprintf(out, "\n%d tagged, %d skipped, %d failed\n", len(result.Migrated), len(result.Skipped), len(failed))

			if len(failed) > 0 {
				return fmt.Errorf("%d books could not be tagged", len(failed))
			}
			return nil
		},
	}
}
