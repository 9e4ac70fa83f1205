package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "concierge version ")
}

func TestGraphCommand(t *testing.T) {
	out, err := run(t, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "flight_lookup")
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shiraz.md"), []byte("# Shiraz\n\nShiraz is the city of poets and gardens.\n"), 0o600))

	out, err := run(t, "index", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 1 document(s) in 1 chunk(s), skipped 0")
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concierge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("records:\n  driver: mysql\n"), 0o600))
	_, err := run(t, "index", t.TempDir(), "--config", path)
	assert.ErrorContains(t, err, "invalid config")
}
