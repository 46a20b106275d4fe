package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type buildOptions struct {
	*rootOptions
	Emit   string // "ir" | "wasm"
	Output string
}

type buildResult struct {
	Module string `json:"module"`
	Emit   string `json:"emit"`
	Output string `json:"output,omitempty"`
	Bytes  int    `json:"bytes"`
	IR     string `json:"ir,omitempty"`
}

func newBuildCommand(root *rootOptions) *cobra.Command {
	opts := &buildOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "build <recipe>",
		Short: "Build a recipe and emit textual IR or a wasm binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Emit, "emit", "ir", "what to emit (ir|wasm)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runBuild(opts *buildOptions, path string, cmd *cobra.Command) error {
	out := newOutput(opts.rootOptions, cmd.OutOrStdout())

	if opts.Emit != "ir" && opts.Emit != "wasm" {
		return out.failure(fmt.Errorf("invalid emit %q: must be ir or wasm", opts.Emit))
	}
	if opts.Emit == "wasm" && opts.Output == "" {
		if out.json() {
			return out.failure(errors.New("wasm output needs -o with --format json"))
		}
		if isTerminal(cmd.OutOrStdout()) {
			return out.failure(errors.New("refusing to write a wasm binary to a terminal; use -o"))
		}
	}

	p, err := loadProgram(path, opts.observers())
	if err != nil {
		return out.failure(err)
	}
	defer p.close(opts.log())

	var buf bytes.Buffer
	switch opts.Emit {
	case "ir":
		err = p.module.WriteIR(&buf)
	case "wasm":
		err = p.module.WriteWasm(&buf)
	}
	if err != nil {
		return out.failure(err)
	}

	res := buildResult{Module: p.module.Name(), Emit: opts.Emit, Output: opts.Output, Bytes: buf.Len()}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return out.failure(fmt.Errorf("write output: %w", err))
		}
		return out.success(res, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "wrote %d bytes of %s to %s\n", res.Bytes, res.Emit, res.Output)
			return err
		})
	}
	res.IR = buf.String()
	return out.success(res, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
