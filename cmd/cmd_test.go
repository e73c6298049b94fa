package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/rami3l/canterbury/config"
	e "github.com/rami3l/canterbury/errors"
	"github.com/rami3l/canterbury/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var script = heredoc.Doc(`
	# Sums up the first few numbers.
	{
		total := 0;
		for (i := 1; i <= 4; i := i + 1) total := total + i;
		print "total: " + 'ok';
		print total;
	}
`)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.cb")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestAppMainSource(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	res, err := appMain(config.Default(), []string{writeScript(t, script)}, vm.WithStdout(&out))
	require.NoError(t, err)
	assert.Equal(t, vm.InterpretOk, res)
	assert.Equal(t, "total: ok\n10\n", out.String())
}

func TestAppMainErrors(t *testing.T) {
	t.Parallel()
	cfg := config.Default()

	res, err := appMain(cfg, []string{writeScript(t, "print ;")})
	assert.Equal(t, vm.InterpretCompileError, res)
	assert.Equal(t, exitCompileError, exitCode(res, err))

	res, err = appMain(cfg, []string{writeScript(t, "print nope;")})
	assert.Equal(t, vm.InterpretRuntimeError, res)
	var rtErr *e.RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, "undefined variable 'nope'", rtErr.Reason)
	assert.Equal(t, exitRuntimeError, exitCode(res, err))

	res, err = appMain(cfg, []string{filepath.Join(t.TempDir(), "missing.cb")})
	assert.Error(t, err)
	assert.Equal(t, 1, exitCode(res, err))
}

func TestAppMainStackMaxFromConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.StackMax = 2
	_, err := appMain(cfg, []string{writeScript(t, "print 1 + (2 + (3 + 4));")}, vm.WithStdout(&bytes.Buffer{}))
	assert.ErrorContains(t, err, "stack overflow")
}

func TestCompileThenRunImage(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	src := writeScript(t, script)
	img := filepath.Join(t.TempDir(), "main.cbc")

	res, err := compileFile(cfg, src, img)
	require.NoError(t, err)
	assert.Equal(t, vm.InterpretOk, res)

	data, err := os.ReadFile(img)
	require.NoError(t, err)
	assert.True(t, vm.IsImage(data))

	var out bytes.Buffer
	res, err = appMain(cfg, []string{img}, vm.WithStdout(&out))
	require.NoError(t, err)
	assert.Equal(t, vm.InterpretOk, res)
	assert.Equal(t, "total: ok\n10\n", out.String())
}

func TestCompileFileError(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "bad.cbc")
	res, err := compileFile(config.Default(), writeScript(t, "1 +;"), out)
	assert.Equal(t, vm.InterpretCompileError, res)
	assert.ErrorContains(t, err, "expect expression")
	assert.NoFileExists(t, out)
}

func TestDisasmFile(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	src := writeScript(t, "print 1 + 2;")

	var fromSrc bytes.Buffer
	_, err := disasmFile(cfg, src, &fromSrc)
	require.NoError(t, err)
	assert.Equal(t, heredoc.Doc(`
		== main.cb ==
		0000    1 OpConst             0 '1'
		0002    | OpConst             1 '2'
		0004    | OpAdd
		0005    | OpPrint
		0006    | OpReturn
	`), fromSrc.String())

	img := filepath.Join(filepath.Dir(src), "main.cbc")
	_, err = compileFile(cfg, src, img)
	require.NoError(t, err)

	var fromImg bytes.Buffer
	_, err = disasmFile(cfg, img, &fromImg)
	require.NoError(t, err)
	assert.Equal(t, fromSrc.String()[len("== main.cb =="):], fromImg.String()[len("== main.cbc =="):])
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	assert.Zero(t, exitCode(vm.InterpretOk, nil))
	assert.Zero(t, exitCode(vm.InterpretRuntimeError, nil))
	assert.Equal(t, 65, exitCode(vm.InterpretCompileError, errors.New("x")))
	assert.Equal(t, 70, exitCode(vm.InterpretRuntimeError, errors.New("x")))
	assert.Equal(t, 1, exitCode(vm.InterpretOk, errors.New("x")))
}

func TestApp(t *testing.T) {
	t.Parallel()
	app := App()
	assert.Equal(t, "canterbury", app.Name())
	names := []string{}
	for _, sub := range app.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"compile", "disasm"})
}
