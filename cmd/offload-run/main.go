package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/host-offload/client"
	"github.com/wippyai/host-offload/engine"
	"github.com/wippyai/host-offload/host"
	"github.com/wippyai/host-offload/runtime"
	"github.com/wippyai/host-offload/table"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		funcName    = flag.String("func", "", "Guest export to run (optional)")
		list        = flag.Bool("list", false, "List guest exports and the offload interface, then exit")
		demo        = flag.Bool("demo", false, "Run the built-in matrix multiply demo (no wasm needed)")
		maxBytes    = flag.Uint64("max-bytes", 0, "Table capacity ceiling in bytes (0 = unlimited)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *interactive {
		if err := runInteractive(*maxBytes); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !*demo && *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: offload-run -wasm <file.wasm> [-func name] [-max-bytes n] [-v]")
		fmt.Fprintln(os.Stderr, "       offload-run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       offload-run -demo")
		fmt.Fprintln(os.Stderr, "       offload-run -i  (interactive mode)")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
		engine.SetLogger(l)
		defer logger.Sync()
	}

	var err error
	if *demo {
		err = runDemo(logger, *maxBytes)
	} else {
		err = run(*wasmFile, *funcName, logger, *maxBytes, *list)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRuntime(ctx context.Context, logger *zap.Logger, maxBytes uint64) (*runtime.Runtime, error) {
	opts := []runtime.Option{runtime.WithLogger(logger)}
	if maxBytes > 0 {
		opts = append(opts, runtime.WithTableOptions(table.WithMaxBytes(maxBytes)))
	}
	return runtime.New(ctx, opts...)
}

func runDemo(logger *zap.Logger, maxBytes uint64) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx, logger, maxBytes)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	ex, err := client.RunMatrixExample(rt.Table(), logger)
	if err != nil {
		return err
	}

	fmt.Printf("A (2x3): %v\n", ex.A)
	fmt.Printf("B (3x2): %v\n", ex.B)
	fmt.Printf("A x B (%dx%d): %v\n", ex.Shape.Rows, ex.Shape.Cols, ex.Product)
	return nil
}

func run(wasmFile, funcName string, logger *zap.Logger, maxBytes uint64, listOnly bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rt, err := newRuntime(ctx, logger, maxBytes)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	mod, err := rt.LoadGuest(ctx, data)
	if err != nil {
		return fmt.Errorf("load guest: %w", err)
	}
	defer mod.Close(ctx)

	exports := mod.ExportNames()
	fmt.Printf("Guest: %s\n", wasmFile)
	fmt.Printf("Exports: %s\n", strings.Join(exports, ", "))

	if listOnly {
		funcs, err := runtime.InterfaceFunctions()
		if err != nil {
			return err
		}
		fmt.Printf("\nOffload interface (%s):\n", host.Namespace)
		for _, f := range funcs {
			var params []string
			for i, name := range f.ParamNames {
				params = append(params, fmt.Sprintf("%s: %T", name, f.Params[i]))
			}
			result := ""
			if len(f.Results) > 0 {
				result = fmt.Sprintf(" -> %T", f.Results[0])
			}
			fmt.Printf("  %s(%s)%s\n", f.Name, strings.Join(params, ", "), result)
		}
		return nil
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(ctx)

	if funcName == "" {
		for _, candidate := range []string{"_start", "run", "main"} {
			for _, e := range exports {
				if e == candidate {
					funcName = candidate
					break
				}
			}
			if funcName != "" {
				break
			}
		}
		if funcName == "" {
			fmt.Println("\nNo function specified and no common entry point found.")
			fmt.Println("Use -func to specify an export to run.")
			return nil
		}
	}

	fmt.Printf("\nRunning %s()...\n", funcName)
	if err := inst.Run(ctx, funcName); err != nil {
		return fmt.Errorf("run %s: %w", funcName, err)
	}

	fmt.Printf("Done. Live buffers: %d (%d bytes)\n", rt.Table().Len(), rt.Table().Bytes())
	return nil
}
