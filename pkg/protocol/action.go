package protocol

import "strings"

// Action is a Beckn API action name
type Action string

const (
	ActionSearch  Action = "search"
	ActionSelect  Action = "select"
	ActionInit    Action = "init"
	ActionConfirm Action = "confirm"
	ActionStatus  Action = "status"
	ActionTrack   Action = "track"
	ActionCancel  Action = "cancel"
	ActionSupport Action = "support"
	ActionRating  Action = "rating"
	ActionUpdate  Action = "update"
)

// CallbackPrefix precedes an action name in its asynchronous reply route
const CallbackPrefix = "on_"

var allActions = []Action{
	ActionSearch, ActionSelect, ActionInit, ActionConfirm, ActionStatus,
	ActionTrack, ActionCancel, ActionSupport, ActionRating, ActionUpdate,
}

// webhookActions are the actions whose callbacks a BAP accepts
var webhookActions = []Action{
	ActionSearch, ActionSelect, ActionInit, ActionConfirm,
	ActionStatus, ActionTrack, ActionCancel, ActionSupport,
}

// Actions returns every known action
func Actions() []Action {
	return append([]Action(nil), allActions...)
}

// WebhookActions returns the actions whose on_ callbacks are served
func WebhookActions() []Action {
	return append([]Action(nil), webhookActions...)
}

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}

// Callback returns the callback name for a, e.g. "on_search"
func (a Action) Callback() string {
	return CallbackPrefix + string(a)
}

func (a Action) String() string {
	return string(a)
}

// ParseCallback maps a callback name such as "on_search" back to its action
func ParseCallback(name string) (Action, bool) {
	rest, ok := strings.CutPrefix(name, CallbackPrefix)
	if !ok {
		return "", false
	}
	a := Action(rest)
	return a, a.Valid()
}
