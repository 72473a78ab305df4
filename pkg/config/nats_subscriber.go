package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SubscriberConfig describes the durable pull consumer of the notifier.
type SubscriberConfig struct {
	Stream   string `koanf:"stream"`
	Subject  string `koanf:"subject"`
	Consumer string `koanf:"consumer"`
	// Batch is the number of events pulled per fetch.
	Batch int `koanf:"batch"`
	// Timeout is how long a fetch waits for the batch to fill.
	Timeout time.Duration `koanf:"timeout"`
	// Interval is the pause after a failed fetch.
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  consumer: %s on %s (%s)\n", c.Consumer, c.Stream, c.Subject))
	b.WriteString(fmt.Sprintf("  batch: %d every %s, retry after %s\n", c.Batch, c.Timeout, c.Interval))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	if c.Stream == "" || c.Subject == "" || c.Consumer == "" {
		return errors.New("subscriber stream, subject and consumer must be configured")
	}
	if c.Batch <= 0 {
		return fmt.Errorf("subscriber batch must be greater than 0, got %d", c.Batch)
	}
	if c.Timeout <= 0 || c.Interval <= 0 {
		return errors.New("subscriber timeout and interval must be greater than 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("subscriber workers must be greater than 0, got %d", c.Workers)
	}
	return nil
}
