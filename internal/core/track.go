package core

import "time"

// Track represents a playable audio track. Identity across participants is by
// ordinal Index into the locally enumerated media list; Name and Path are
// local conveniences only.
type Track struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
}
