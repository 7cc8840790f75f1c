package dispatch

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/avasilyev/rps-arena-go/internal/model"
)

// Kind enumerates the client actions the dispatcher accepts
type Kind string

const (
	KindMarkAsReady   Kind = "mark_as_ready"
	KindThrow         Kind = "throw"
	KindStartNewRound Kind = "start_new_round"
	KindCancelGame    Kind = "cancel_game"
	KindShowHistory   Kind = "show_history"
	KindChangeName    Kind = "change_name"
	KindChangeType    Kind = "change_type"
)

// maxNameLength bounds change_name payloads
const maxNameLength = 20

// Action is a validated inbound message. Exactly one of the data fields
// is meaningful, selected by Kind.
type Action struct {
	Kind      Kind
	Throw     model.Throw
	Name      string
	MatchSize int
}

// ClientError is a message rejection reported back to the sender rather
// than logged as a server fault.
type ClientError struct {
	msg string
}

func (e *ClientError) Error() string {
	return e.msg
}

func clientErrorf(msg string) *ClientError {
	return &ClientError{msg: msg}
}

// ParseAction validates the raw message shape and payload per action.
func ParseAction(raw []byte) (Action, error) {
	var msg struct {
		Action *string         `json:"action"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Action{}, clientErrorf("message is not serializable")
	}
	if msg.Action == nil {
		return Action{}, clientErrorf("field 'action' is absent")
	}

	action := Action{Kind: Kind(*msg.Action)}
	switch action.Kind {
	case KindMarkAsReady, KindStartNewRound, KindCancelGame, KindShowHistory:
		return action, nil

	case KindThrow:
		if msg.Data == nil {
			return Action{}, clientErrorf("field 'data' is absent in throw action")
		}
		var value string
		if err := json.Unmarshal(msg.Data, &value); err != nil || !model.ValidThrow(model.Throw(value)) {
			return Action{}, clientErrorf("unsupported throw")
		}
		action.Throw = model.Throw(value)
		return action, nil

	case KindChangeName:
		if msg.Data == nil {
			return Action{}, clientErrorf("field 'data' is absent in change_name action")
		}
		var name string
		if err := json.Unmarshal(msg.Data, &name); err != nil {
			return Action{}, clientErrorf("name must be a string")
		}
		if name == "" {
			return Action{}, clientErrorf("name must not be empty")
		}
		// Character count, not bytes: multibyte names must fit too.
		if utf8.RuneCountInString(name) >= maxNameLength {
			return Action{}, clientErrorf("name must be shorter than 20 characters")
		}
		action.Name = name
		return action, nil

	case KindChangeType:
		if msg.Data == nil {
			return Action{}, clientErrorf("field 'data' is absent in change_type action")
		}
		var size int
		if err := json.Unmarshal(msg.Data, &size); err != nil || (size != 1 && size != 2) {
			return Action{}, clientErrorf("wrong game type value")
		}
		action.MatchSize = size
		return action, nil

	default:
		return Action{}, clientErrorf("unsupported action")
	}
}
