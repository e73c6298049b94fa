package vm_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	e "github.com/rami3l/canterbury/errors"
	"github.com/rami3l/canterbury/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCompileError(t *testing.T, src, reason string) {
	t.Helper()
	var out bytes.Buffer
	vm_ := vm.NewVM(vm.WithStdout(&out))
	res, err := vm_.Interpret(src)
	assert.Equal(t, vm.InterpretCompileError, res, src)
	assert.ErrorContains(t, err, reason, src)
	// Nothing runs when compilation fails.
	assert.Empty(t, out.String(), src)
	assert.Empty(t, vm_.GlobalNames(), src)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	cases := []struct{ src, reason string }{
		{"print 1", "at EOF, expect ';' after value"},
		{"a := 1 + ;", "at `;`, expect expression"},
		{"print (1 + 2;", "expect ')' after expression"},
		{"a + b := 3;", "at `:=`, invalid assignment target"},
		{"1 := 2;", "invalid assignment target"},
		{"{ print 1;", "expect '}' after block"},
		{"if true) print 1;", "at `true`, expect '(' after 'if'"},
		{"if (true print 1;", "expect ')' after condition"},
		{"while (true;", "expect ')' after condition"},
		{"for (;;", "expect expression"},
		{`print "abc;`, "compilation error [L1]: unterminated string"},
		{"print @;", "unexpected character"},
		{"{ x := x; }", "can't read local variable in its own initializer"},
		{"{ y := (z := 1); }", "can't declare a local variable here"},
		{"f := func(a, a) {};", "already a parameter with this name"},
		{"f := func(a {};", "expect ')' after parameters"},
		{"f := func() print 1;", "expect '{' before function body"},
	}
	for _, c := range cases {
		assertCompileError(t, c.src, c.reason)
	}
}

func TestReservedKeywords(t *testing.T) {
	t.Parallel()
	for _, kw := range []string{"struct", "self", "match", "against", "is", "import", "elif", "return"} {
		assertCompileError(t, fmt.Sprintf("x := %s;", kw), fmt.Sprintf("at `%s`, expect expression", kw))
	}
}

func TestCompileErrorLine(t *testing.T) {
	t.Parallel()
	_, err := vm.Compile("x := 1;\ny := 2;\nprint x +;\n", vm.NewHeap(), nil)
	var compErr *e.CompilationError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, 3, compErr.Line)
	assert.Equal(t, "at `;`, expect expression", compErr.Reason)
}

func TestMultipleCompileErrors(t *testing.T) {
	t.Parallel()
	_, err := vm.Compile("print ;\nx := 1;\nprint ;\n{ y := y; }", vm.NewHeap(), nil)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 3)
	for i, line := range []int{1, 3, 4} {
		var compErr *e.CompilationError
		require.True(t, errors.As(merr.Errors[i], &compErr))
		assert.Equal(t, line, compErr.Line)
	}
}

func TestTooManyConstants(t *testing.T) {
	t.Parallel()
	nums := make([]string, 257)
	for i := range nums {
		nums[i] = fmt.Sprint(i)
	}
	assertCompileError(t, "print "+strings.Join(nums, " + ")+";", "too many constants in one chunk")

	// 256 is fine.
	_, err := vm.Compile("print "+strings.Join(nums[:256], " + ")+";", vm.NewHeap(), nil)
	assert.NoError(t, err)
}

func TestTooManyLocals(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	sb.WriteString("{\n")
	for i := 0; i < 257; i++ {
		fmt.Fprintf(&sb, "a%d := true;\n", i)
	}
	sb.WriteString("}\n")
	assertCompileError(t, sb.String(), "too many local variables in function")
}

func TestManyLocals(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	sb.WriteString("{\n")
	for i := 0; i < 256; i++ {
		fmt.Fprintf(&sb, "a%d := %d;\n", i, i)
	}
	sb.WriteString("print a0 + a255;\n}\n")

	var out bytes.Buffer
	vm_ := vm.NewVM(vm.WithStdout(&out))
	_, err := vm_.Interpret(sb.String())
	require.NoError(t, err)
	assert.Equal(t, "255\n", out.String())
	assert.Zero(t, vm_.StackDepth())
}

func assertSingleCompileError(t *testing.T, src, reason string) {
	t.Helper()
	_, err := vm.Compile(src, vm.NewHeap(), nil)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 1, merr.Error())
	assert.ErrorContains(t, merr.Errors[0], reason)
}

func TestJumpTooLarge(t *testing.T) {
	t.Parallel()
	// Each statement takes two bytes, so the body no longer fits in a u16 offset.
	body := "{ " + strings.Repeat("true; ", 33000) + "}"
	assertSingleCompileError(t, "{ if (true) "+body+" print 1; }", "at `}`, too much code to jump over")
	assertSingleCompileError(t, "{ while (true) "+body+" print 1; }", "at `}`, loop body too large")

	// Just under the limit is fine.
	_, err := vm.Compile("if (true) { "+strings.Repeat("true; ", 32000)+"}", vm.NewHeap(), nil)
	assert.NoError(t, err)
}

// Recovery stops at a closing brace so the enclosing block still gets closed.
func TestSyncAtBlockEnd(t *testing.T) {
	t.Parallel()
	assertSingleCompileError(t, "{ { print 1 } print 2; }", "at `}`, expect ';' after value")
	assertSingleCompileError(t, "{ while (false) { print 1 } print 2; }", "at `}`, expect ';' after value")
}

func TestCompileWithGlobalResolver(t *testing.T) {
	t.Parallel()
	heap := vm.NewHeap()
	known := resolver{"g": {}}

	// Assigning a known global inside a block doesn't declare a local.
	chunk, err := vm.Compile("{ g := 1; }", heap, known)
	require.NoError(t, err)
	assert.Equal(t, byte(vm.OpSetGlobal), chunk.Code()[2])

	chunk, err = vm.Compile("{ h := 1; }", heap, known)
	require.NoError(t, err)
	assert.Equal(t, byte(vm.OpPop), chunk.Code()[2])
}

type resolver map[string]struct{}

func (r resolver) IsGlobal(name string) bool {
	_, ok := r[name]
	return ok
}
