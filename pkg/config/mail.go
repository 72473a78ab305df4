package config

import (
	"fmt"
	"net"
	"net/mail"
	"strings"
	"time"
)

type MailConfig struct {
	Addr     string        `koanf:"addr"`
	From     string        `koanf:"from"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	StartTLS bool          `koanf:"starttls"`
	Timeout  time.Duration `koanf:"timeout"`
}

// String returns a string representation of the mail configuration. The password is masked.
func (c *MailConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Mail ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  from: %s\n", c.From))
	b.WriteString(fmt.Sprintf("  username: %s\n", c.Username))
	b.WriteString(fmt.Sprintf("  password: %s\n", maskSecret(c.Password)))
	b.WriteString(fmt.Sprintf("  starttls: %t\n", c.StartTLS))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *MailConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("mail server address is not configured")
	}
	if host, _, err := net.SplitHostPort(c.Addr); err != nil || host == "" {
		return fmt.Errorf("mail server address must be host:port, got %q", c.Addr)
	}
	if _, err := mail.ParseAddress(c.From); err != nil {
		return fmt.Errorf("invalid mail sender address %q: %w", c.From, err)
	}
	if c.Username != "" && c.Password == "" {
		return fmt.Errorf("mail password is required when username is set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("mail timeout must be greater than 0")
	}
	return nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}
