// Package cli implements the docchat command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/futig/docchat/internal/builder"
	"github.com/spf13/cobra"
)

var (
	envName  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "docchat - chat with your documents from the terminal",
	Long: `docchat answers questions from a directory of embedded document shards
using Azure OpenAI, or proxies the conversation to a hosted agent.

Configuration is read from the same environment variables as the HTTP
backend and the Telegram bot (.env.<env> is loaded when present).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "local", "Environment to load (local, prod, or custom)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

// appBuilder is replaced in tests
var appBuilder = func() (*builder.CLI, error) {
	return builder.BuildCLI(envName, logLevel)
}

var errNotRAG = errors.New("this command needs CHAT_MODE=rag")

func withApp(fn func(ctx context.Context, cmd *cobra.Command, app *builder.CLI, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := appBuilder()
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(cmd.Context(), cmd, app, args)
	}
}
