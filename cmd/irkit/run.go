package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type runOptions struct {
	*rootOptions
	Interactive bool
}

type runResult struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
	Result   string   `json:"result,omitempty"`
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run <recipe> [function] [args...]",
		Short: "Build a recipe, load it into wazero and call a function",
		Long: `Build a recipe, lower it to wasm, instantiate it with wazero and call one of
the functions it defines. Functions the recipe only declares are bound to host
stubs that log their arguments and return zero.

Without a function name the recipe must define exactly one function. Put -- before
the function name when an argument is negative.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Interactive {
				return runInteractive(opts.rootOptions, args[0])
			}
			return runCall(opts, args[0], args[1:], cmd)
		},
	}
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "pick functions and arguments in a TUI")
	return cmd
}

func runCall(opts *runOptions, path string, args []string, cmd *cobra.Command) error {
	out := newOutput(opts.rootOptions, cmd.OutOrStdout())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := loadProgram(path, opts.observers())
	if err != nil {
		return out.failure(err)
	}
	defer p.close(opts.log())

	funcs, err := exportedFuncs(p.recipe)
	if err != nil {
		return out.failure(err)
	}
	var f funcInfo
	switch {
	case len(args) > 0:
		var ok bool
		if f, ok = findFunc(funcs, args[0]); !ok {
			return out.failure(fmt.Errorf("recipe %s defines no function %q", p.recipe.Name, args[0]))
		}
		args = args[1:]
	case len(funcs) == 1:
		f = funcs[0]
	default:
		names := make([]string, len(funcs))
		for i, fi := range funcs {
			names[i] = fi.name
		}
		return out.failure(fmt.Errorf("no function given; choose one of %s", strings.Join(names, ", ")))
	}

	if len(args) != len(f.params) {
		return out.failure(fmt.Errorf("%s takes %d arguments, got %d", f.signature(), len(f.params), len(args)))
	}
	stack := make([]uint64, len(args))
	for i, a := range args {
		if stack[i], err = convertArg(a, f.params[i].witType); err != nil {
			return out.failure(fmt.Errorf("%s: %w", f.params[i].name, err))
		}
	}

	e, mod, err := p.instantiate(ctx, opts.log())
	if err != nil {
		return out.failure(err)
	}
	defer e.Close(ctx)

	results, err := mod.Call(ctx, f.name, stack...)
	if err != nil {
		return out.failure(err)
	}
	res := runResult{Function: f.name, Args: append([]string{}, args...)}
	if f.result != nil && len(results) > 0 {
		res.Result = formatResult(f.result, results[0])
	}
	return out.success(res, func(w io.Writer) error {
		call := f.name + "(" + strings.Join(args, ", ") + ")"
		if res.Result == "" {
			_, err := fmt.Fprintln(w, call)
			return err
		}
		_, err := fmt.Fprintf(w, "%s = %s\n", call, res.Result)
		return err
	})
}

func runInteractive(opts *rootOptions, path string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New("interactive mode needs a terminal")
	}
	return runProgram(newInteractiveModel(opts, path))
}
