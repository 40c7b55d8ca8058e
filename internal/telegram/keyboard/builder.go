package keyboard

import (
	"strconv"

	"github.com/futig/docchat/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	ActionStarter = "starter"

	startersPerRow = 2
)

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// StartersKeyboard lays starter prompts out two per row. Buttons carry the
// starter index, not the message, to stay under the callback data limit.
func (b *Builder) StartersKeyboard(starters []entity.Starter) *tgbotapi.InlineKeyboardMarkup {
	if len(starters) == 0 {
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, s := range starters {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s.Label, EncodeCallback(ActionStarter, strconv.Itoa(i))))
		if len(row) == startersPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
