package status

import "errors"

var ErrStatusNotFound = errors.New("player status not found")

// Status is the snapshot of one player. CurrentTime is the playback position
// in seconds at the last state change that had one.
type Status struct {
	VideoId     string  `redis:"video_id"`
	State       int     `redis:"state"`
	Error       int     `redis:"error"`
	Title       string  `redis:"title"`
	Author      string  `redis:"author"`
	CurrentTime float64 `redis:"current_time"`
	UpdatedAt   int64   `redis:"updated_at"`
}

type SetVideoParams struct {
	PageId    string
	ElementId string
	VideoId   string
	State     int
	UpdatedAt int64
}

type SetVideoDataParams struct {
	PageId    string
	ElementId string
	VideoId   string
	Title     string
	Author    string
}

type SetStateParams struct {
	PageId    string
	ElementId string
	State     int
	UpdatedAt int64
}

type SetCurrentTimeParams struct {
	PageId      string
	ElementId   string
	CurrentTime float64
}

type SetErrorParams struct {
	PageId    string
	ElementId string
	Error     int
	UpdatedAt int64
}
