package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/irbind/capi/inproc"
	"github.com/wippyai/irbind/engine"
	"github.com/wippyai/irbind/entity"
	"github.com/wippyai/irbind/ir"
	"github.com/wippyai/irbind/observe"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose bool
	Format  string // "text" | "json"

	logger *zap.Logger
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{Format: "text"}

	cmd := &cobra.Command{
		Use:           "irkit",
		Short:         "Build, inspect and run IR module recipes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			l, err := newLogger(opts.Verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			opts.logger = l
			installLogger(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.log().Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log entity lifecycle and foreign calls")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newBuildCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func installLogger(l *zap.Logger) {
	entity.SetLogger(l.Named("entity"))
	ir.SetLogger(l.Named("ir"))
	inproc.SetLogger(l.Named("inproc"))
	engine.SetLogger(l.Named("engine"))
}

func (o *rootOptions) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// observers returns the lifecycle observers attached to every module a command builds.
func (o *rootOptions) observers() []entity.Observer {
	if !o.Verbose {
		return nil
	}
	return []entity.Observer{observe.NewLogObserver(o.log().Named("lifecycle"))}
}
