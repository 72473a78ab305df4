package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultLivenessInterval = 20 * time.Second

// ProbesConfig names the marker files watched by the orchestrator exec probes.
// Missing file names default to the system temp dir.
type ProbesConfig struct {
	ReadinessFileName string        `koanf:"readinessfilename"`
	LivenessFileName  string        `koanf:"livenessfilename"`
	LivenessInterval  time.Duration `koanf:"livenessinterval"`
}

func (c *ProbesConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Probes ---\n")
	b.WriteString(fmt.Sprintf("  readiness: %s\n", c.ReadinessFileName))
	b.WriteString(fmt.Sprintf("  liveness: %s every %s\n", c.LivenessFileName, c.LivenessInterval))
	return b.String()
}

func (c *ProbesConfig) Validate() error {
	if c.ReadinessFileName == "" {
		c.ReadinessFileName = filepath.Join(os.TempDir(), "notifier-ready")
	}
	if c.LivenessFileName == "" {
		c.LivenessFileName = filepath.Join(os.TempDir(), "notifier-live")
	}
	if c.ReadinessFileName == c.LivenessFileName {
		return fmt.Errorf("readiness and liveness probes must use different files: %s", c.ReadinessFileName)
	}
	if c.LivenessInterval == 0 {
		c.LivenessInterval = defaultLivenessInterval
	}
	if c.LivenessInterval < 0 {
		return fmt.Errorf("liveness interval must be greater than 0")
	}
	return nil
}
