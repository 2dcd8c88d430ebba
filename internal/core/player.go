package core

import "time"

// Player defines the interface to the audio engine collaborator. The
// synchronization core never decodes audio; it only issues these calls and
// reads back position and duration. Calls are synchronous and may block
// briefly, so they are made only from the session driver, never from the
// network receive path.
type Player interface {
	// Load prepares the track at path for playback. Implementations report
	// the decoded duration via Duration after a successful Load.
	Load(path string) error

	// Playback control
	Play() error
	Pause() error
	Seek(position time.Duration) error
	Stop() error

	// State queries
	Position() time.Duration
	Duration() time.Duration
}
