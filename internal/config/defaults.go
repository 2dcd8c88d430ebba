package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Port:                   41205,
			BroadcastAddr:          "255.255.255.255",
			HeartbeatInterval:      1000,
			StaleTimeout:           5000,
			DepartedTimeout:        15000,
			DiscoveryRetryInterval: 2000,
			DiscoveryRetryCount:    10,
		},
		Sync: SyncConfig{
			EpsilonSoft: 150,
			EpsilonHard: 750,
			DedupWindow: 512,
		},
		Media: MediaConfig{
			Dir: "media",
		},
		TUI: TUIConfig{
			RefreshInterval: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Network
	if c.Network.Port == 0 {
		c.Network.Port = d.Network.Port
	}
	if c.Network.BroadcastAddr == "" {
		c.Network.BroadcastAddr = d.Network.BroadcastAddr
	}
	if c.Network.HeartbeatInterval == 0 {
		c.Network.HeartbeatInterval = d.Network.HeartbeatInterval
	}
	if c.Network.StaleTimeout == 0 {
		c.Network.StaleTimeout = d.Network.StaleTimeout
	}
	if c.Network.DepartedTimeout == 0 {
		c.Network.DepartedTimeout = d.Network.DepartedTimeout
	}
	if c.Network.DiscoveryRetryInterval == 0 {
		c.Network.DiscoveryRetryInterval = d.Network.DiscoveryRetryInterval
	}
	if c.Network.DiscoveryRetryCount == 0 {
		c.Network.DiscoveryRetryCount = d.Network.DiscoveryRetryCount
	}

	// Sync
	if c.Sync.EpsilonSoft == 0 {
		c.Sync.EpsilonSoft = d.Sync.EpsilonSoft
	}
	if c.Sync.EpsilonHard == 0 {
		c.Sync.EpsilonHard = d.Sync.EpsilonHard
	}
	if c.Sync.DedupWindow == 0 {
		c.Sync.DedupWindow = d.Sync.DedupWindow
	}

	// Media
	if c.Media.Dir == "" {
		c.Media.Dir = d.Media.Dir
	}

	// TUI
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
