package probes

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/wallacore/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProbes(t *testing.T) config.ProbesConfig {
	dir := t.TempDir()
	return config.ProbesConfig{
		ReadinessFileName: filepath.Join(dir, "ready"),
		LivenessFileName:  filepath.Join(dir, "live"),
		LivenessInterval:  10 * time.Millisecond,
	}
}

func Test_MarkReady_And_Clear(t *testing.T) {
	// given
	cfg := testProbes(t)

	// when
	require.NoError(t, MarkReady(cfg))

	// then
	assert.FileExists(t, cfg.ReadinessFileName)
	Clear(cfg)
	assert.NoFileExists(t, cfg.ReadinessFileName)
	// clearing twice is harmless
	Clear(cfg)
}

func Test_RunLiveness_TouchesFileUntilCancelled(t *testing.T) {
	// given
	cfg := testProbes(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// when
	go func() { done <- RunLiveness(ctx, cfg, logger) }()

	// then
	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.LivenessFileName)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	first, err := os.Stat(cfg.LivenessFileName)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		info, err := os.Stat(cfg.LivenessFileName)
		return err == nil && info.ModTime().After(first.ModTime())
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunLiveness did not stop")
	}
}
