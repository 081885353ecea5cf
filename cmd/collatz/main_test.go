package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/on-the-ground/collatz_ive_go/collatz"
	"github.com/on-the-ground/collatz_ive_go/config"
	"github.com/on-the-ground/collatz_ive_go/effects/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collatz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memo:\n  backend: memdb\n  path: from-file.json\n"), 0o644))

	cfg, opts, err := loadConfig([]string{
		"-config", path,
		"-memo", "from-flag.json",
		"-interval", "5ms",
		"-no-color",
		"-histogram",
		"-start", "1980976057694848447",
	})
	require.NoError(t, err)
	assert.True(t, opts.histogramOnly)
	assert.Equal(t, "1980976057694848447", opts.start.String())
	assert.Equal(t, "from-flag.json", cfg.Memo.Path)
	assert.Equal(t, "memdb", cfg.Memo.Backend)
	assert.Equal(t, 5*time.Millisecond, cfg.Session.TickInterval)
	assert.False(t, cfg.Display.Color)
	assert.Equal(t, "current_num.txt", cfg.Cursor.Path)
}

func TestLoadConfig_UnsetFlagsKeepDefaults(t *testing.T) {
	cfg, opts, err := loadConfig(nil)
	require.NoError(t, err)
	assert.False(t, opts.histogramOnly)
	assert.Zero(t, opts.start.Sign())
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, _, err := loadConfig([]string{"-backend", "sqlite"})
	assert.Error(t, err)

	_, _, err = loadConfig([]string{"-bogus"})
	assert.Error(t, err)

	_, _, err = loadConfig([]string{"-start", "-4"})
	assert.ErrorIs(t, err, collatz.ErrInvalidInput)
}

func runContext(t *testing.T, cfg config.Config) context.Context {
	ctx, endOfLog := log.WithTestEffectHandler(context.Background())
	t.Cleanup(func() { endOfLog() })
	ctx, endOfConfig := config.WithEffectHandler(ctx, cfg)
	t.Cleanup(func() { endOfConfig() })
	return ctx
}

func tempConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Memo.Path = filepath.Join(dir, "memo.json")
	cfg.Cursor.Path = filepath.Join(dir, "current_num.txt")
	cfg.Session.TickInterval = time.Millisecond
	return cfg
}

func TestRun_MaxStepsThenPersist(t *testing.T) {
	cfg := tempConfig(t)
	cfg.Session.MaxSteps = 10
	cfg.Memo.Backend = "memdb"
	cfg.Memo.CacheSize = 1 << 16
	cfg.Memo.PersistEvery = 4

	var out bytes.Buffer
	require.NoError(t, run(runContext(t, cfg), runOptions{}, strings.NewReader(""), &out))

	cursor, err := os.ReadFile(cfg.Cursor.Path)
	require.NoError(t, err)
	assert.Equal(t, "11", string(cursor))
	assert.FileExists(t, cfg.Memo.Path)
	assert.Contains(t, out.String(), "commands:")
}

func TestRun_QuitCommand(t *testing.T) {
	cfg := tempConfig(t)
	cfg.Session.TickInterval = time.Hour

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- run(runContext(t, cfg), runOptions{}, strings.NewReader("p\nq\n"), &out)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop on q")
	}
	assert.Contains(t, out.String(), "Current Number: 1  Memo Count: 0")
	assert.FileExists(t, cfg.Cursor.Path)
}

func TestRun_HistogramOnly(t *testing.T) {
	cfg := tempConfig(t)
	require.NoError(t, os.WriteFile(cfg.Memo.Path, []byte(`{"1":[1],"2":[2,1],"3":[3,10,5,16,8,4,2,1]}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(runContext(t, cfg), runOptions{histogramOnly: true}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "Collatz Sequence Length Histogram")
	assert.Contains(t, out.String(), "length min/max: 1/8")

	_, err := os.Stat(cfg.Cursor.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_StartFlagMovesCursor(t *testing.T) {
	cfg := tempConfig(t)
	cfg.Session.MaxSteps = 2
	start, err := collatz.ParseStart("1980976057694848447")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(runContext(t, cfg), runOptions{start: start}, strings.NewReader(""), &out))

	cursor, err := os.ReadFile(cfg.Cursor.Path)
	require.NoError(t, err)
	assert.Equal(t, "1980976057694848449", string(cursor))

	memoBytes, err := os.ReadFile(cfg.Memo.Path)
	require.NoError(t, err)
	assert.Contains(t, string(memoBytes), `"1980976057694848448":[1980976057694848448,`)
}
