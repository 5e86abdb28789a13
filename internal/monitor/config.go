package monitor

import "time"

type Config struct {
	// PollInterval applies once any reader has been seen.
	PollInterval time.Duration
	// IdleInterval applies while no reader has ever been seen.
	IdleInterval time.Duration
	Seen         SeenStore
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 1 * time.Second,
		IdleInterval: 5 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = def.IdleInterval
	}
	if c.Seen == nil {
		c.Seen = NewMemorySeen(false)
	}
	return c
}
