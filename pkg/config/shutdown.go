package config

import (
	"fmt"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// ShutdownConfig bounds how long servers get to drain once a stop signal arrives.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	return fmt.Sprintf("\n--- Shutdown ---\n  timeout: %s\n", c.Timeout)
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout == 0 {
		c.Timeout = defaultShutdownTimeout
	}
	if c.Timeout < 0 {
		return fmt.Errorf("shutdown timeout must be greater than 0")
	}
	return nil
}
