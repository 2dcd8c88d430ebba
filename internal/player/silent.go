package player

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/errors"
)

// Nominal bitrate used to estimate a duration when no decoder is attached.
// 192 kbps is a common CBR encode; good enough for a progress bar.
const estimateBitrate = 192_000

// Silent is a Player with no audio output: it tracks position against the
// wall clock and estimates durations from file size. It keeps the engine,
// the TUI and every test runnable on machines without an audio backend, and
// doubles as the reference implementation of the collaborator contract.
type Silent struct {
	mu       sync.Mutex
	loaded   bool
	duration time.Duration
	pos      time.Duration
	playing  bool
	since    time.Time
}

// NewSilent returns an unloaded silent player.
func NewSilent() *Silent {
	return &Silent{}
}

// Load stats the file and derives an estimated duration from its size.
func (p *Silent) Load(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrTrackLoadFailure, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", errors.ErrTrackLoadFailure, path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
	p.duration = time.Duration(info.Size()*8/estimateBitrate) * time.Second
	if p.duration <= 0 {
		p.duration = time.Second
	}
	p.pos = 0
	p.playing = false
	return nil
}

func (p *Silent) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return fmt.Errorf("%w: no track loaded", errors.ErrTrackLoadFailure)
	}
	if !p.playing {
		p.playing = true
		p.since = time.Now()
	}
	return nil
}

func (p *Silent) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.pos = p.positionLocked(time.Now())
		p.playing = false
	}
	return nil
}

func (p *Silent) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if position < 0 {
		position = 0
	}
	p.pos = position
	if p.playing {
		p.since = time.Now()
	}
	return nil
}

func (p *Silent) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.pos = 0
	return nil
}

func (p *Silent) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked(time.Now())
}

func (p *Silent) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Silent) positionLocked(now time.Time) time.Duration {
	if !p.playing {
		return p.pos
	}
	pos := p.pos + now.Sub(p.since)
	if p.duration > 0 && pos > p.duration {
		return p.duration
	}
	return pos
}

var _ core.Player = (*Silent)(nil)
