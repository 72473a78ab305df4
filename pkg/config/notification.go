package config

import (
	"fmt"
	"strings"
)

// Notification delivery modes.
const (
	NotificationModeLog  = "log"
	NotificationModeSMTP = "smtp"
	NotificationModeNATS = "nats"
)

type NotificationConfig struct {
	Mode string `koanf:"mode"`
}

// String returns a string representation of the notification configuration.
func (c *NotificationConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Notification ---\n")
	b.WriteString(fmt.Sprintf("  mode: %s\n", c.Mode))
	return b.String()
}

func (c *NotificationConfig) Validate() error {
	switch c.Mode {
	case NotificationModeLog, NotificationModeSMTP, NotificationModeNATS:
		return nil
	case "":
		c.Mode = NotificationModeLog
		return nil
	default:
		return fmt.Errorf("unknown notification mode: %q", c.Mode)
	}
}
