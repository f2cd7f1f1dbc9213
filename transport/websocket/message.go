package websocket

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	actionGetSession  = "session:get"
	actionCellClick   = "cell:click"
	actionMoveJump    = "move:jump"
	actionOrderToggle = "order:toggle"
	actionReset       = "session:reset"
)

const errInvalidMessage = "invalid message"


// Message is what the browser sends: an action and its arguments.
type Message struct {
	Action   string         `json:"action"`
	Contents map[string]any `json:"contents,omitempty"`
}

// Response answers one message with either the new view or an error.
type Response struct {
	Action string       `json:"action"`
	View   *entity.View `json:"view,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type cellContents struct {
	Index *int `mapstructure:"index"`
}

type moveContents struct {
	Move *int `mapstructure:"move"`
}

// decodeContents - JSON numbers arrive as float64, WeaklyTypedInput lets them land in ints.
func decodeContents(contents map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}

	if err = decoder.Decode(contents); err != nil {
		return fmt.Errorf("failed to decode contents: %w", err)
	}

	return nil
}
