package embed

import (
	"time"

	"github.com/sharetube/embed/pkg/ytapi"
)

type PlayerInfo struct {
	ElementId string `json:"element_id"`
	VideoId   string `json:"video_id"`
	Created   bool   `json:"created"`
	Shuffle   bool   `json:"shuffle"`
	Loop      bool   `json:"loop"`
}

type PageInfo struct {
	Id        string       `json:"id"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	Inserted  bool         `json:"inserted"`
	Ready     bool         `json:"ready"`
	Pending   int          `json:"pending"`
	Connected bool         `json:"connected"`
	Players   []PlayerInfo `json:"players"`
}

type PlayerStatus struct {
	PlayerInfo
	State       ytapi.PlayerState `json:"state"`
	StateName   string            `json:"state_name"`
	Error       ytapi.PlayerError `json:"error,omitempty"`
	ErrorName   string            `json:"error_name,omitempty"`
	Title       string            `json:"title,omitempty"`
	Author      string            `json:"author,omitempty"`
	CurrentTime float64           `json:"current_time"`
	UpdatedAt   int64             `json:"updated_at,omitempty"`
}
