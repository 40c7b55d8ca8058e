package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/futig/docchat/internal/entity"
)

// CallbackData represents parsed callback data
type CallbackData struct {
	Action string
	Value  string
}

// ParseCallback parses callback data string
func ParseCallback(data string) (*CallbackData, error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid callback format: %s", data)
	}

	return &CallbackData{
		Action: parts[0],
		Value:  parts[1],
	}, nil
}

// EncodeCallback creates callback data string
func EncodeCallback(action, value string) string {
	return fmt.Sprintf("%s:%s", action, value)
}

// StarterFromCallback resolves a starter button press to its prompt
func StarterFromCallback(cb *CallbackData, starters []entity.Starter) (entity.Starter, error) {
	if cb.Action != ActionStarter {
		return entity.Starter{}, fmt.Errorf("%w: callback action %q", entity.ErrInvalidParameter, cb.Action)
	}

	idx, err := strconv.Atoi(cb.Value)
	if err != nil || idx < 0 || idx >= len(starters) {
		return entity.Starter{}, fmt.Errorf("%w: starter %q", entity.ErrInvalidParameter, cb.Value)
	}

	return starters[idx], nil
}
