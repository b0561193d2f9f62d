// hostbridge CLI - runs guests against the reflective host operations
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/dop251/goja"
	"github.com/reglet-dev/hostbridge/bridge"
	"github.com/reglet-dev/hostbridge/config"
	"github.com/reglet-dev/hostbridge/host"
	gojabridge "github.com/reglet-dev/hostbridge/infrastructure/goja"
	bridgewazero "github.com/reglet-dev/hostbridge/infrastructure/wazero"
	"github.com/reglet-dev/hostbridge/wireformat"
	"go.uber.org/zap"
)

// scriptContext is the execution-context handle of a script run.
type scriptContext struct {
	script string
}

func (c *scriptContext) String() string { return "script:" + c.script }

// hostInfo is the receiver scripts see as the global "hostInfo".
type hostInfo struct {
	Env  map[string]string `host:"env"`
	OS   string            `host:"os"`
	Arch string            `host:"arch"`
	Args []string          `host:"args"`
}

func (h *hostInfo) Getenv(key string) string {
	return h.Env[key]
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	var err error
	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "run":
		err = runScript(args, os.Stdout)
	case "wasm":
		err = runWasm(args, os.Stdout)
	case "schema":
		err = printSchema(args, os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: hostbridge <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run [-config file] script.js [args...]   Run a JavaScript guest\n")
	fmt.Fprintf(os.Stderr, "  wasm [-config file] [-export name] module.wasm   Run a WASM guest export\n")
	fmt.Fprintf(os.Stderr, "  schema [config|request|response]         Print a JSON schema\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  hostbridge run ./examples/members.js\n")
	fmt.Fprintf(os.Stderr, "  hostbridge schema config\n")
}

// loadConfig returns the defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newRegistry(cfg config.Config) (*bridge.Registry, *zap.Logger, error) {
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	reg, err := host.DefaultRegistry(logger)
	if err != nil {
		return nil, nil, err
	}
	return reg, logger, nil
}

func runScript(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Configuration file (YAML)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("run: missing script path")
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	reg, logger, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	binder, err := gojabridge.NewBinder(reg,
		gojabridge.WithInlineThreshold(cfg.InlineThreshold),
		gojabridge.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	rt := goja.New()
	if _, err := binder.Install(rt, &scriptContext{script: path}); err != nil {
		return err
	}
	info := &hostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH, Args: fs.Args()[1:], Env: map[string]string{}}
	if err := rt.Set("hostInfo", info); err != nil {
		return err
	}

	result, err := rt.RunScript(path, string(source))
	if err != nil {
		return err
	}
	if result == nil || goja.IsUndefined(result) {
		return nil
	}
	encoded, err := json.Marshal(result.Export())
	if err != nil {
		_, err = fmt.Fprintln(out, result.String())
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func runWasm(args []string, out io.Writer) (err error) {
	fs := flag.NewFlagSet("wasm", flag.ContinueOnError)
	configPath := fs.String("config", "", "Configuration file (YAML)")
	export := fs.String("export", "run", "Guest export to call")
	input := fs.String("input", "", "Input passed to the export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("wasm: missing module path")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	wasmBytes, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to read module: %w", err)
	}

	reg, logger, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	adapterOpts := []bridgewazero.AdapterOption{
		bridgewazero.WithModuleName(cfg.ModuleName),
		bridgewazero.WithMaxRequestSize(cfg.MaxRequestSize),
	}
	if len(cfg.Allow) > 0 {
		adapterOpts = append(adapterOpts, bridgewazero.WithGuard(bridgewazero.AllowPatterns(cfg.Allow...)))
	}

	ctx := context.Background()
	exec, err := host.NewExecutor(ctx,
		host.WithRegistry(reg),
		host.WithLogger(logger),
		host.WithAdapterOptions(adapterOpts...),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := exec.Close(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close executor: %w", cerr)
		}
	}()

	mod, err := exec.LoadModule(ctx, "guest", wasmBytes)
	if err != nil {
		return err
	}
	mod.Bind(&hostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH, Args: fs.Args()[1:], Env: map[string]string{}})

	result, err := mod.Call(ctx, *export, []byte(*input))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(result))
	return err
}

func printSchema(args []string, out io.Writer) error {
	which := "config"
	if len(args) > 0 {
		which = args[0]
	}

	var schema []byte
	var err error
	switch which {
	case "config":
		schema, err = config.Schema()
	case "request":
		schema, err = wireformat.RequestSchema()
	case "response":
		schema, err = wireformat.ResponseSchema()
	default:
		return fmt.Errorf("unknown schema %q", which)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(schema))
	return err
}
