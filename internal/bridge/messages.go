package bridge

import (
	"encoding/json"

	"github.com/sharetube/embed/pkg/ytapi"
)

// page -> server
const (
	TypeAPIReady = "API_READY"
	TypeEvent    = "EVENT"
	TypeResult   = "RESULT"
)

// server -> page
const (
	TypeInsertScript = "INSERT_SCRIPT"
	TypeCreatePlayer = "CREATE_PLAYER"
	TypeCall         = "CALL"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyInput struct{}

type EventInput struct {
	PlayerID string          `json:"player_id"`
	Kind     ytapi.EventKind `json:"kind"`
	Data     json.RawMessage `json:"data"`
}

type ResultInput struct {
	RequestID string          `json:"request_id"`
	Value     json.RawMessage `json:"value"`
	Error     string          `json:"error"`
}

type InsertScriptOutput struct {
	Src string `json:"src"`
}

type CreatePlayerOutput struct {
	ID      string         `json:"id"`
	Options *ytapi.Options `json:"options"`
}

// CallOutput invokes a player method in the page. RequestID is empty for
// calls whose result is not awaited.
type CallOutput struct {
	RequestID string `json:"request_id,omitempty"`
	PlayerID  string `json:"player_id"`
	Method    string `json:"method"`
	Args      []any  `json:"args"`
}
