package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/futig/docchat/internal/builder"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/formatter"
	"github.com/futig/docchat/internal/pkg/validator"
	"github.com/spf13/cobra"
)

var (
	transcriptFormat string
	transcriptOut    string
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Export the last answer with its source documents",
	Long: `Transcript renders the transcript file written by the last answered
question as markdown, pdf or docx. Binary formats need --out.`,
	Args: cobra.NoArgs,
	RunE: withApp(runTranscript),
}

func init() {
	rootCmd.AddCommand(transcriptCmd)
	transcriptCmd.Flags().StringVarP(&transcriptFormat, "format", "f", "markdown", "Output format (markdown, pdf, docx)")
	transcriptCmd.Flags().StringVarP(&transcriptOut, "out", "o", "", "Write to this file instead of stdout")
}

func runTranscript(ctx context.Context, cmd *cobra.Command, app *builder.CLI, _ []string) error {
	if app.Chat == nil {
		return errNotRAG
	}

	format, err := validator.New(0).ParseFormat(transcriptFormat)
	if err != nil {
		return err
	}

	f, err := formatter.NewFactory().Create(format)
	if err != nil {
		return err
	}

	t, err := app.Chat.LatestTranscript(ctx)
	if err != nil {
		return err
	}

	data, err := f.Format(t)
	if err != nil {
		return fmt.Errorf("format transcript: %w", err)
	}

	if transcriptOut == "" {
		if format != entity.FormatMarkdown {
			return fmt.Errorf("%s output is binary, use --out", format)
		}
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(transcriptOut, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Transcript written to "+transcriptOut))
	return nil
}
