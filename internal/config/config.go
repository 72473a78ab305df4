// Package config defines the configuration of the marketplace and notifier binaries.
package config

import (
	"strings"

	"github.com/abgdnv/wallacore/pkg/config"
	"github.com/abgdnv/wallacore/pkg/config/configloader"
)

var (
	_ configloader.Validator = (*MarketplaceConfig)(nil)
	_ configloader.Validator = (*NotifierConfig)(nil)
)

// MarketplaceConfig configures the HTTP API.
type MarketplaceConfig struct {
	HTTPServer   config.HTTPConfig         `koanf:"server"`
	Log          config.LogConfig          `koanf:"log"`
	PProf        config.PProfConfig        `koanf:"pprof"`
	Shutdown     config.ShutdownConfig     `koanf:"shutdown"`
	Storage      config.StorageConfig      `koanf:"storage"`
	Notification config.NotificationConfig `koanf:"notification"`
	Mail         config.MailConfig         `koanf:"mail"`
	Nats         config.NATSConfig         `koanf:"nats"`
	Resilience   config.ResilienceConfig   `koanf:"resilience"`
	Thumbnail    config.ThumbnailConfig    `koanf:"thumbnail"`
	Telemetry    config.TelemetryConfig    `koanf:"telemetry"`
	Tracing      bool                      `koanf:"tracing"`
}

func (c *MarketplaceConfig) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Storage.String())
	b.WriteString(c.Notification.String())
	switch c.Notification.Mode {
	case config.NotificationModeSMTP:
		b.WriteString(c.Mail.String())
	case config.NotificationModeNATS:
		b.WriteString(c.Nats.String())
	}
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Thumbnail.String())
	if c.Tracing {
		b.WriteString(c.Telemetry.String())
	}
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid.
// Mail and NATS settings are only checked when the notification mode uses them.
func (c *MarketplaceConfig) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer, &c.Log, &c.PProf, &c.Shutdown, &c.Storage, &c.Notification, &c.Resilience, &c.Thumbnail,
	}
	if err := validateAll(validators...); err != nil {
		return err
	}
	switch c.Notification.Mode {
	case config.NotificationModeSMTP:
		if err := c.Mail.Validate(); err != nil {
			return err
		}
	case config.NotificationModeNATS:
		if err := c.Nats.Validate(); err != nil {
			return err
		}
	}
	if c.Tracing {
		return c.Telemetry.Validate()
	}
	return nil
}

// NotifierConfig configures the worker that mails queued notifications.
type NotifierConfig struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Mail       config.MailConfig       `koanf:"mail"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *NotifierConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Mail.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *NotifierConfig) Validate() error {
	return validateAll(&c.Log, &c.PProf, &c.Nats, &c.Subscriber, &c.Mail, &c.Resilience, &c.Probes, &c.Shutdown)
}

func validateAll(validators ...configloader.Validator) error {
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
