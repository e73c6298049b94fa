package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/rami3l/canterbury/config"
	"github.com/rami3l/canterbury/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "canterbury.toml", heredoc.Doc(`
		verbosity = "DEBUG"
		stack-max = 1024
		trace = true

		[repl]
		prompt = ">> "
		history-file = "/tmp/canterbury_history"
	`))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Verbosity)
	assert.Equal(t, 1024, cfg.StackMax)
	assert.Equal(t, vm.DefaultFrameMax, cfg.FrameMax)
	assert.True(t, cfg.Trace)
	assert.Equal(t, ">> ", cfg.REPL.Prompt)
	assert.Equal(t, "/tmp/canterbury_history", cfg.REPL.HistoryFile)
	assert.Equal(t, path, cfg.Path)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "canterbury.yml", heredoc.Doc(`
		frame-max: 8
		repl:
		  prompt: "$ "
	`))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Verbosity)
	assert.Equal(t, vm.DefaultStackMax, cfg.StackMax)
	assert.Equal(t, 8, cfg.FrameMax)
	assert.False(t, cfg.Trace)
	assert.Equal(t, "$ ", cfg.REPL.Prompt)
}

func TestLoadEmptyYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "canterbury.yaml", "")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	expected := config.Default()
	expected.Path = path
	assert.Equal(t, expected, cfg)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cases := map[string]struct{ name, content string }{
		"unsupported config format":  {"canterbury.json", "{}"},
		"parse error":                {"bad.toml", "stack-max = "},
		"field nope not found":       {"unknown.yaml", "nope: 1\n"},
		"unknown keys [nope]":        {"unknown.toml", "nope = 1\n"},
		"unknown keys [repl.colour]": {"nested.toml", "[repl]\ncolour = true\n"},
		"stack-max must be positive": {"neg.toml", "stack-max = -1\n"},
		"frame-max must be positive": {"zero.yaml", "frame-max: 0\n"},
	}
	for reason, c := range cases {
		_, err := config.Load(writeFile(t, dir, c.name, c.content))
		assert.ErrorContains(t, err, reason, c.name)
	}

	_, err := config.Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "cannot read")
}

func TestFindAndLoad(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	path := writeFile(t, root, "canterbury.toml", "stack-max = 42\n")
	// The TOML file is preferred over the YAML one.
	writeFile(t, root, "canterbury.yaml", "stack-max: 7\n")

	cfg, err := config.FindAndLoad(nested)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.StackMax)
	assert.Equal(t, path, cfg.Path)

	// The nearest file wins.
	inner := writeFile(t, nested, "canterbury.yml", "stack-max: 9\n")
	cfg, err = config.FindAndLoad(nested)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.StackMax)
	assert.Equal(t, inner, cfg.Path)
}
