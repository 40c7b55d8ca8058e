package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/futig/docchat/internal/entity"
)

var (
	headerColor  = lipgloss.Color("#F780FF")
	queryColor   = lipgloss.Color("#8BE9FD")
	answerColor  = lipgloss.Color("#E9E9F4")
	mutedColor   = lipgloss.Color("#6272A4")
	warnColor    = lipgloss.Color("#FFB86C")
	errorColor   = lipgloss.Color("#FF5555")
	successColor = lipgloss.Color("#50FA7B")

	headerStyle  = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	queryStyle   = lipgloss.NewStyle().Foreground(queryColor).Italic(true)
	answerStyle  = lipgloss.NewStyle().Foreground(answerColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	refusalStyle = lipgloss.NewStyle().Foreground(warnColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	promptStyle  = lipgloss.NewStyle().Foreground(queryColor).Bold(true)
)

func printReply(w io.Writer, reply *entity.Reply) {
	style := answerStyle
	if reply.Kind == entity.ReplyRefusal {
		style = refusalStyle
	}
	fmt.Fprintln(w, style.Render(reply.Text))
}

func printTurnError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
}

func printDocuments(w io.Writer, docs entity.RetrievalResult) {
	if len(docs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No documents passed the similarity threshold."))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Documents (%d):", len(docs))))
	for _, id := range sortedKeys(docs) {
		fmt.Fprintln(w, mutedStyle.Render("• "+id))
	}
}
