package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rami3l/canterbury/config"
	e "github.com/rami3l/canterbury/errors"
	"github.com/rami3l/canterbury/vm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

// Exit codes, following sysexits.h.
const (
	exitCompileError = 65
	exitRuntimeError = 70
)

type appState struct {
	cfg *config.Config
}

func App() (app *cobra.Command) {
	app = &cobra.Command{
		Use:   "canterbury [FILE]",
		Args:  cobra.MaximumNArgs(1),
		Short: "canterbury: A bytecode interpreter for the Canterbury language.",
	}
	app.Flags().SortFlags = true

	defaultVerbosityStr := "INFO"
	verbosity := app.PersistentFlags().StringP("verbosity", "v", defaultVerbosityStr, "logging verbosity")
	configPath := app.PersistentFlags().StringP("config", "c", "", "config file (default: nearest canterbury.toml/yaml)")

	state := &appState{}
	app.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		logrus.SetFormatter(&easy.Formatter{LogFormat: "%lvl% %msg%\n"})

		cfg, err := loadConfig(*configPath)
		if err != nil {
			logrus.Fatal(err)
		}
		state.cfg = cfg

		verbosityStr := cfg.Verbosity
		if cmd.Flags().Changed("verbosity") {
			verbosityStr = *verbosity
		}
		verbosityLvl, err := logrus.ParseLevel(verbosityStr)
		if err != nil {
			verbosityLvl, _ = logrus.ParseLevel(defaultVerbosityStr)
		}
		if cfg.Trace && verbosityLvl < logrus.DebugLevel {
			verbosityLvl = logrus.DebugLevel
		}
		logrus.SetLevel(verbosityLvl)
		if cfg.Path != "" {
			logrus.Debugf("using config %s", cfg.Path)
		}
	}

	app.Run = func(_ *cobra.Command, args []string) {
		res, err := appMain(state.cfg, args)
		exit(res, err)
	}

	app.AddCommand(compileCmd(state), disasmCmd(state))
	return
}

func compileCmd(state *appState) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "compile FILE",
		Args:  cobra.ExactArgs(1),
		Short: "Compile a source file into a bytecode image.",
	}
	output := cmd.Flags().StringP("output", "o", "", "output path (default: FILE with a .cbc extension)")
	cmd.Run = func(_ *cobra.Command, args []string) {
		out := *output
		if out == "" {
			out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".cbc"
		}
		exit(compileFile(state.cfg, args[0], out))
	}
	return
}

func disasmCmd(state *appState) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "disasm FILE",
		Args:  cobra.ExactArgs(1),
		Short: "Print the bytecode of a source file or a bytecode image.",
	}
	cmd.Run = func(cmd *cobra.Command, args []string) {
		exit(disasmFile(state.cfg, args[0], cmd.OutOrStdout()))
	}
	return
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.FindAndLoad(".")
}

func newVM(cfg *config.Config, opts ...vm.Option) *vm.VM {
	opts = append([]vm.Option{
		vm.WithStackMax(cfg.StackMax),
		vm.WithFrameMax(cfg.FrameMax),
		vm.WithTrace(cfg.Trace),
	}, opts...)
	return vm.NewVM(opts...)
}

func appMain(cfg *config.Config, args []string, opts ...vm.Option) (vm.InterpretResult, error) {
	vm_ := newVM(cfg, opts...)
	defer vm_.Free()

	switch len(args) {
	case 0:
		if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return vm.InterpretOk, vm_.REPL(cfg.REPL.Prompt, cfg.REPL.HistoryFile)
		}
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return vm.InterpretOk, err
		}
		return vm_.Interpret(string(src))
	case 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return vm.InterpretOk, err
		}
		if !vm.IsImage(data) {
			return vm_.Interpret(string(data))
		}
		chunk, err := vm.UnmarshalImage(data, vm_.Heap())
		if err != nil {
			return vm.InterpretOk, err
		}
		return vm_.Run(chunk)
	default:
		return vm.InterpretOk, e.UnreachableError
	}
}

func compileFile(cfg *config.Config, path, out string) (vm.InterpretResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return vm.InterpretOk, err
	}
	vm_ := newVM(cfg)
	defer vm_.Free()

	chunk, err := vm_.Compile(string(src))
	if err != nil {
		return vm.InterpretCompileError, err
	}
	img, err := vm.MarshalImage(chunk)
	if err != nil {
		return vm.InterpretOk, err
	}
	if err := os.WriteFile(out, img, 0o644); err != nil {
		return vm.InterpretOk, err
	}
	logrus.Infof("wrote %s (%d bytes of code, %d constants)", out, chunk.Len(), len(chunk.Consts()))
	return vm.InterpretOk, nil
}

func disasmFile(cfg *config.Config, path string, w io.Writer) (vm.InterpretResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return vm.InterpretOk, err
	}
	vm_ := newVM(cfg)
	defer vm_.Free()

	var chunk *vm.Chunk
	if vm.IsImage(data) {
		chunk, err = vm.UnmarshalImage(data, vm_.Heap())
		if err != nil {
			return vm.InterpretOk, err
		}
	} else if chunk, err = vm_.Compile(string(data)); err != nil {
		return vm.InterpretCompileError, err
	}
	_, err = fmt.Fprint(w, chunk.Disassemble(filepath.Base(path)))
	return vm.InterpretOk, err
}

func exitCode(res vm.InterpretResult, err error) int {
	switch {
	case err == nil:
		return 0
	case res == vm.InterpretCompileError:
		return exitCompileError
	case res == vm.InterpretRuntimeError:
		return exitRuntimeError
	default:
		return 1
	}
}

func exit(res vm.InterpretResult, err error) {
	if err != nil {
		logrus.Error(err)
	}
	if code := exitCode(res, err); code != 0 {
		os.Exit(code)
	}
}
