package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/tgscope/internal/archive"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configPath, backendURL, logLevel = "", "", ""
		refresh = false
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeConfig points the archive at a temp directory.
func writeConfig(t *testing.T) (path, dir string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("[archive]\npath = %q\nindex = %q\n\n[log]\nlevel = \"off\"\n",
		filepath.ToSlash(filepath.Join(dir, "archive.db")),
		filepath.ToSlash(filepath.Join(dir, "index.bleve")))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, dir
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	if !strings.Contains(out, "tgscope dev") {
		t.Errorf("Expected version output to contain 'tgscope dev', got: %s", out)
	}
	if !strings.Contains(out, "Telegram archive search") {
		t.Errorf("Expected version output to contain 'Telegram archive search', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/tgscope") {
		t.Errorf("Expected version output to contain 'github.com/pders01/tgscope', got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, ".config", "tgscope", "config.toml")

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", oldHome)

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func TestGenerateConfigCommand_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tgscope.toml")
	configPath = path
	defer func() { configPath = "" }()

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_url")
	assert.Contains(t, string(data), "per_language_limit")
}

func TestLoadConfig_Overrides(t *testing.T) {
	path, _ := writeConfig(t)
	configPath = path
	backendURL = "http://localhost:8080/"
	logLevel = "debug"
	defer func() { configPath, backendURL, logLevel = "", "", "" }()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)

	backendURL = "ftp://localhost"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestImportCommand_RequiresURLs(t *testing.T) {
	_, err := execute(t, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no feed URLs given")
}

func TestChannelsCommands(t *testing.T) {
	path, dir := writeConfig(t)

	store, err := archive.NewStore(filepath.Join(dir, "archive.db"), time.Second)
	require.NoError(t, err)
	require.NoError(t, store.SaveChannel(&archive.Channel{ID: "ops", Username: "opsnews", Title: "Ops News"}))
	_, err = store.SaveMessages([]*archive.Message{
		{ChannelID: "ops", MessageID: "1", Content: "runway", Date: time.Now()},
		{ChannelID: "ops", MessageID: "2", Content: "coast", Date: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "--config", path, "channels")
	require.NoError(t, err)
	assert.Contains(t, out, "opsnews")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "1 channel(s), 2 message(s)")

	out, err = execute(t, "--config", path, "channels", "rm", "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed ops")

	out, err = execute(t, "--config", path, "channels")
	require.NoError(t, err)
	assert.Contains(t, out, "0 channel(s), 0 message(s)")

	_, err = execute(t, "--config", path, "channels", "rm", "ops")
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrNotFound)
}
