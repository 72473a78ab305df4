package config

import (
	"fmt"
	"strings"
)

type StorageConfig struct {
	Catalog  string `koanf:"catalog"`
	Messages string `koanf:"messages"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  catalog: %s\n", c.Catalog))
	b.WriteString(fmt.Sprintf("  messages: %s\n", c.Messages))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	if c.Catalog == "" {
		return fmt.Errorf("catalog file path is not configured")
	}
	if c.Messages == "" {
		return fmt.Errorf("messages file path is not configured")
	}
	if c.Catalog == c.Messages {
		return fmt.Errorf("catalog and messages must be different files: %s", c.Catalog)
	}
	return nil
}
