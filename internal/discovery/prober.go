package discovery

import "time"

// DefaultRetryInterval and DefaultMaxRetries bound the discover exchange: a
// node re-broadcasts Discover on the retry interval until it has observed the
// leader, and gives up after the retry count.
const (
	DefaultRetryInterval = 2 * time.Second
	DefaultMaxRetries    = 10
)

// Prober tracks discover retry state. It is driven by the session timer loop
// and is not safe for concurrent use; the driver owns it.
type Prober struct {
	Interval   time.Duration
	MaxRetries int

	attempts int
	lastSent time.Time
}

// NewProber returns a prober with the given bounds; zero values select the
// defaults.
func NewProber(interval time.Duration, maxRetries int) *Prober {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Prober{Interval: interval, MaxRetries: maxRetries}
}

// Due reports whether a Discover should be sent at now.
func (p *Prober) Due(now time.Time) bool {
	if p.Exhausted() {
		return false
	}
	return p.lastSent.IsZero() || now.Sub(p.lastSent) >= p.Interval
}

// Sent records a broadcast attempt.
func (p *Prober) Sent(now time.Time) {
	p.attempts++
	p.lastSent = now
}

// Exhausted reports whether the retry bound has been exceeded.
func (p *Prober) Exhausted() bool {
	return p.attempts >= p.MaxRetries
}

// Reset clears retry state, e.g. after the leader reappears.
func (p *Prober) Reset() {
	p.attempts = 0
	p.lastSent = time.Time{}
}

// Attempts returns the number of Discovers sent since the last reset.
func (p *Prober) Attempts() int {
	return p.attempts
}
