package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/futig/docchat/internal/builder"
	"github.com/futig/docchat/internal/entity"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Chat keeps a conversation going in the terminal. In rag mode the last
messages are used to rewrite each question; in agent mode every message
goes to the hosted agent thread and the answer is streamed.

Type /reset to start over, /starters to list suggestions, /exit to quit.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *builder.CLI, _ []string) error {
		return runChat(ctx, app, cmd.InOrStdin(), cmd.OutOrStdout())
	}),
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(ctx context.Context, app *builder.CLI, in io.Reader, out io.Writer) error {
	sessionID := "cli:" + uuid.NewString()

	start := func() error {
		if app.Agent != nil {
			_, err := app.Agent.StartChat(ctx, sessionID)
			return err
		}
		if app.Chat == nil {
			return errNotRAG
		}
		_, err := app.Chat.StartChat(ctx, sessionID)
		return err
	}

	if err := start(); err != nil {
		return err
	}
	fmt.Fprintln(out, mutedStyle.Render("New chat started. /exit to quit."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			if err := start(); err != nil {
				printTurnError(out, err)
				continue
			}
			fmt.Fprintln(out, mutedStyle.Render("History cleared."))
			continue
		case "/starters":
			for _, s := range app.Starters {
				fmt.Fprintf(out, "%s %s\n", headerStyle.Render(s.Label+":"), s.Message)
			}
			continue
		}

		if app.Agent != nil {
			agentTurn(ctx, app, sessionID, text, out)
		} else {
			chatTurn(ctx, app, sessionID, text, out)
		}
	}
}

func chatTurn(ctx context.Context, app *builder.CLI, sessionID, text string, out io.Writer) {
	fmt.Fprintln(out, mutedStyle.Render(entity.ThinkingMessage))

	reply, err := app.Chat.HandleMessage(ctx, sessionID, text)
	if err != nil {
		printTurnError(out, err)
		return
	}
	printReply(out, reply)
}

func agentTurn(ctx context.Context, app *builder.CLI, sessionID, text string, out io.Writer) {
	fmt.Fprintln(out, mutedStyle.Render(entity.ThinkingMessage))

	streamed := false
	reply, err := app.Agent.HandleMessage(ctx, sessionID, text, func(delta string) error {
		streamed = true
		_, err := fmt.Fprint(out, answerStyle.Render(delta))
		return err
	})
	if streamed {
		fmt.Fprintln(out)
	}
	if err != nil {
		printTurnError(out, err)
		return
	}
	if !streamed && reply != nil {
		fmt.Fprintln(out, answerStyle.Render(reply.Text))
	}
}
