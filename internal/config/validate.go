package config

import (
	"fmt"

	"github.com/tessro/syncstream/internal/errors"
)

// Validate checks the configuration for mistakes the rest of the program
// cannot recover from.
func (c *Config) Validate() error {
	if c.Network.Port < 1 || c.Network.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", errors.ErrInvalidConfig, c.Network.Port)
	}
	if c.Network.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: heartbeat_interval must be positive", errors.ErrInvalidConfig)
	}
	if c.Network.StaleTimeout <= c.Network.HeartbeatInterval {
		return fmt.Errorf("%w: stale_timeout must exceed heartbeat_interval", errors.ErrInvalidConfig)
	}
	if c.Network.DepartedTimeout <= c.Network.StaleTimeout {
		return fmt.Errorf("%w: departed_timeout must exceed stale_timeout", errors.ErrInvalidConfig)
	}
	if c.Network.DiscoveryRetryCount < 1 {
		return fmt.Errorf("%w: discovery_retry_count must be at least 1", errors.ErrInvalidConfig)
	}
	if c.Sync.EpsilonHard <= c.Sync.EpsilonSoft {
		return fmt.Errorf("%w: epsilon_hard must exceed epsilon_soft", errors.ErrInvalidConfig)
	}
	if c.Sync.DedupWindow < 1 {
		return fmt.Errorf("%w: dedup_window must be at least 1", errors.ErrInvalidConfig)
	}
	if c.Media.Dir == "" {
		return fmt.Errorf("%w: media dir is empty", errors.ErrInvalidConfig)
	}
	return nil
}
