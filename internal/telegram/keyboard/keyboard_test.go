package keyboard

import (
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var starters = []entity.Starter{
	{Label: "Morning routine ideation", Message: "Can you help me create a personalized morning routine?"},
	{Label: "Spot the errors", Message: "How can I avoid common mistakes when proofreading my work?"},
	{Label: "Get more done", Message: "How can I improve my productivity during remote work?"},
}

func TestStartersKeyboard(t *testing.T) {
	kb := NewBuilder().StartersKeyboard(starters)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)

	btn := kb.InlineKeyboard[1][0]
	assert.Equal(t, "Get more done", btn.Text)
	require.NotNil(t, btn.CallbackData)
	assert.Equal(t, "starter:2", *btn.CallbackData)

	assert.Nil(t, NewBuilder().StartersKeyboard(nil))
}

func TestStarterFromCallback(t *testing.T) {
	cb, err := ParseCallback("starter:1")
	require.NoError(t, err)

	s, err := StarterFromCallback(cb, starters)
	require.NoError(t, err)
	assert.Equal(t, starters[1].Message, s.Message)

	for _, data := range []string{"starter:9", "starter:x", "other:0"} {
		cb, err := ParseCallback(data)
		require.NoError(t, err)
		_, err = StarterFromCallback(cb, starters)
		assert.ErrorIs(t, err, entity.ErrInvalidParameter, data)
	}

	_, err = ParseCallback("garbage")
	assert.Error(t, err)
}
