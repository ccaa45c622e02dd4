package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/driftsync/pkg/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&cliApp{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitAndValidate(t *testing.T) {
	out, err := runCLI(t, "config", "init")
	require.NoError(t, err)
	parsed := config.Default()
	require.NoError(t, config.Parse([]byte(out), &parsed))
	assert.Equal(t, config.Default(), parsed)

	target := filepath.Join(t.TempDir(), "driftsync.toml")
	out, err = runCLI(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote the default configuration")

	_, err = runCLI(t, "config", "init", "--path", target)
	assert.Error(t, err)

	out, err = runCLI(t, "--config", target, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	require.NoError(t, os.WriteFile(target, []byte("[tracker]\nmode = \"nope\"\n"), 0o644))
	_, err = runCLI(t, "--config", target, "config", "validate")
	assert.Error(t, err)
}

func TestArgs(t *testing.T) {
	_, err := runCLI(t, "sync", "only-one")
	assert.Error(t, err)
	_, err = runCLI(t, "segments")
	assert.Error(t, err)
}
