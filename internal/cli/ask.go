package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/futig/docchat/internal/builder"
	"github.com/spf13/cobra"
)

var showDocs bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about the documents",
	Long: `Ask answers one question the same way a chat turn does: the question is
rewritten, matching document chunks are retrieved and the model answers
from them only. The transcript file is overwritten with the result.

Examples:
  docchat ask "How tall is the Eiffel Tower?"
  docchat ask "What does chapter 2 cover?" --docs`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runAsk),
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&showDocs, "docs", false, "List the documents the answer was grounded on")
}

func runAsk(ctx context.Context, cmd *cobra.Command, app *builder.CLI, args []string) error {
	if app.Chat == nil {
		return errNotRAG
	}

	question := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render("Question:"))
	fmt.Fprintln(out, queryStyle.Render(question))
	fmt.Fprintln(out)

	reply, err := app.Chat.Answer(ctx, []string{question})
	if err != nil {
		printTurnError(out, err)
		return err
	}

	fmt.Fprintln(out, headerStyle.Render("Answer:"))
	printReply(out, reply)

	if showDocs {
		fmt.Fprintln(out)
		printDocuments(out, reply.Documents)
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
