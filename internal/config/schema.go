package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Network NetworkConfig `toml:"network"`
	Sync    SyncConfig    `toml:"sync"`
	Media   MediaConfig   `toml:"media"`
	TUI     TUIConfig     `toml:"tui"`
	Log     LogConfig     `toml:"log"`
}

// NetworkConfig holds the UDP session settings. Intervals are milliseconds.
type NetworkConfig struct {
	Port                   int    `toml:"port"`
	BroadcastAddr          string `toml:"broadcast_addr"`
	HeartbeatInterval      int    `toml:"heartbeat_interval"`
	StaleTimeout           int    `toml:"stale_timeout"`
	DepartedTimeout        int    `toml:"departed_timeout"`
	DiscoveryRetryInterval int    `toml:"discovery_retry_interval"`
	DiscoveryRetryCount    int    `toml:"discovery_retry_count"`
}

// SyncConfig holds drift-correction thresholds. Epsilons are milliseconds.
type SyncConfig struct {
	EpsilonSoft int `toml:"epsilon_soft"`
	EpsilonHard int `toml:"epsilon_hard"`
	DedupWindow int `toml:"dedup_window"`
}

// MediaConfig holds local media enumeration settings.
type MediaConfig struct {
	Dir string `toml:"dir"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	RefreshInterval int `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration helpers for the millisecond fields.

func (n NetworkConfig) Heartbeat() time.Duration {
	return time.Duration(n.HeartbeatInterval) * time.Millisecond
}

func (n NetworkConfig) Stale() time.Duration {
	return time.Duration(n.StaleTimeout) * time.Millisecond
}

func (n NetworkConfig) Departed() time.Duration {
	return time.Duration(n.DepartedTimeout) * time.Millisecond
}

func (n NetworkConfig) DiscoveryRetry() time.Duration {
	return time.Duration(n.DiscoveryRetryInterval) * time.Millisecond
}

func (s SyncConfig) Soft() time.Duration {
	return time.Duration(s.EpsilonSoft) * time.Millisecond
}

func (s SyncConfig) Hard() time.Duration {
	return time.Duration(s.EpsilonHard) * time.Millisecond
}

func (t TUIConfig) Refresh() time.Duration {
	return time.Duration(t.RefreshInterval) * time.Millisecond
}
