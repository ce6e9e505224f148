package main

import (
	"os"
	"path/filepath"
	"testing"

	"hcsr04/pkg/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/womat/debug"
)

func TestCloseDebugFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "hcsr04.yaml")
	logFile := filepath.Join(dir, "hcsr04.log")
	require.NoError(t, os.WriteFile(name, []byte("debug:\n  file: "+logFile+"\n"), 0o600))

	cfg := config.NewConfig()
	cfg.Flag.ConfigFile = name
	require.NoError(t, cfg.LoadConfig())
	debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
	defer debug.SetDebug(os.Stderr, debug.Standard)

	closeDebugFile(cfg)

	_, err := cfg.Debug.File.Write([]byte("after close\n"))
	assert.ErrorIs(t, err, os.ErrClosed)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "closing debug file "+logFile)
}
