package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docchat/internal/builder"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show which document chunks match a query",
	Long: `Search embeds the query and lists every chunk whose cosine similarity
passes the threshold, without asking the model for an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runSearch),
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context, cmd *cobra.Command, app *builder.CLI, args []string) error {
	if app.Chat == nil {
		return errNotRAG
	}

	out := cmd.OutOrStdout()
	docs, matches, err := app.Chat.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No matches."))
		return nil
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d matching chunks, %d documents", len(matches), len(docs))))
	for _, m := range matches {
		fmt.Fprintf(out, "%s  %s %s\n",
			successStyle.Render(fmt.Sprintf("%.4f", m.Similarity)),
			m.ContentID,
			mutedStyle.Render(fmt.Sprintf("(%s, %s)", m.Topic, m.Shard)),
		)
	}

	return nil
}
