package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/opa-wasm-runtime/loader"
	"github.com/wippyai/opa-wasm-runtime/runtime"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func main() {
	var (
		modulePath  = flag.String("module", "", "Path to the compiled policy WASM module")
		bundlePath  = flag.String("bundle", "", "Path to an OPA bundle (tar.gz)")
		entrypoint  = flag.String("entrypoint", "", "Entrypoint to evaluate (default: the module's entrypoint 0)")
		dataJSON    = flag.String("data", "", "JSON literal to use as data")
		dataPath    = flag.String("data-path", "", "Path to a JSON file to load as data")
		inputJSON   = flag.String("input", "", "JSON literal to use as input")
		inputPath   = flag.String("input-path", "", "Path to a JSON file to load as input")
		list        = flag.Bool("list", false, "List entrypoints and exit")
		strict      = flag.Bool("strict", false, "Abort evaluation on builtin errors instead of returning undefined")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if (*modulePath == "") == (*bundlePath == "") {
		fmt.Fprintln(os.Stderr, "Usage: opa-eval -module <policy.wasm> | -bundle <bundle.tar.gz> [-entrypoint name]")
		fmt.Fprintln(os.Stderr, "                [-data JSON | -data-path PATH] [-input JSON | -input-path PATH]")
		fmt.Fprintln(os.Stderr, "       opa-eval -module <policy.wasm> -list")
		fmt.Fprintln(os.Stderr, "       opa-eval -module <policy.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			runtime.SetLogger(logger)
			defer logger.Sync()
		}
	}

	if err := run(options{
		modulePath:  *modulePath,
		bundlePath:  *bundlePath,
		entrypoint:  *entrypoint,
		dataJSON:    *dataJSON,
		dataPath:    *dataPath,
		inputJSON:   *inputJSON,
		inputPath:   *inputPath,
		list:        *list,
		strict:      *strict,
		interactive: *interactive,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	modulePath  string
	bundlePath  string
	entrypoint  string
	dataJSON    string
	dataPath    string
	inputJSON   string
	inputPath   string
	list        bool
	strict      bool
	interactive bool
}

// loadDocument resolves a literal/path flag pair to a value, falling
// back to the given default JSON.
func loadDocument(literal, path string, fallback []byte) (value.Value, error) {
	switch {
	case literal != "" && path != "":
		return nil, fmt.Errorf("literal and path flags are mutually exclusive")
	case literal != "":
		return value.Parse([]byte(literal))
	case path != "":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return value.Parse(content)
	case fallback != nil:
		return value.Parse(fallback)
	}
	return value.NewObject(), nil
}

func run(opts options) error {
	ctx := context.Background()

	var (
		wasm        []byte
		bundledData []byte
	)
	if opts.bundlePath != "" {
		bundle, err := loader.ReadBundle(opts.bundlePath)
		if err != nil {
			return err
		}
		wasm = bundle.Policy
		bundledData = bundle.Data
	} else {
		var err error
		wasm, err = os.ReadFile(opts.modulePath)
		if err != nil {
			return err
		}
	}

	if opts.interactive {
		return runInteractive(wasm, bundledData)
	}

	var rtOpts []runtime.Option
	if opts.strict {
		rtOpts = append(rtOpts, runtime.WithStrictBuiltinErrors())
	}

	rt, err := runtime.New(ctx, wasm, rtOpts...)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	if opts.list {
		entrypoints := rt.Entrypoints()
		sort.Strings(entrypoints)
		for _, name := range entrypoints {
			fmt.Println(name)
		}
		return nil
	}

	data, err := loadDocument(opts.dataJSON, opts.dataPath, bundledData)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	input, err := loadDocument(opts.inputJSON, opts.inputPath, nil)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	entrypoint := opts.entrypoint
	if entrypoint == "" {
		entrypoint = rt.DefaultEntrypoint()
	}
	if entrypoint == "" {
		return fmt.Errorf("module has no default entrypoint, pass -entrypoint")
	}

	policy, err := rt.WithData(ctx, data)
	if err != nil {
		return err
	}

	result, err := policy.Evaluate(ctx, entrypoint, input)
	if err != nil {
		return err
	}

	out, err := value.MarshalString(result)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
