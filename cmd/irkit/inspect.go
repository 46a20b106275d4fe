package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/ir"
	"github.com/wippyai/irbind/observe"
)

type inspectOptions struct {
	*rootOptions
	Metrics bool
}

type inspectReport struct {
	Module    string             `json:"module"`
	ID        string             `json:"id"`
	Target    string             `json:"target,omitempty"`
	Entities  entityCounts       `json:"entities"`
	Functions []functionReport   `json:"functions"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

type entityCounts struct {
	Types      int `json:"types"`
	Values     int `json:"values"`
	Blocks     int `json:"blocks"`
	Attributes int `json:"attributes"`
}

type functionReport struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Defined    bool   `json:"defined"`
	Params     int    `json:"params"`
	Blocks     int    `json:"blocks"`
	Attributes int    `json:"attributes"`
}

func newInspectCommand(root *rootOptions) *cobra.Command {
	opts := &inspectOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "inspect <recipe>",
		Short: "Build a recipe and describe the resulting module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "report entity lifecycle counters")
	return cmd
}

func runInspect(opts *inspectOptions, path string, cmd *cobra.Command) error {
	out := newOutput(opts.rootOptions, cmd.OutOrStdout())

	observers := opts.observers()
	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		metrics, err := observe.NewMetrics(observe.MetricsConfig{Registry: reg})
		if err != nil {
			return out.failure(err)
		}
		defer metrics.Close()
		observers = append(observers, metrics)
	}

	p, err := loadProgram(path, observers)
	if err != nil {
		return out.failure(err)
	}
	report, err := describe(p.module)
	p.close(opts.log())
	if err != nil {
		return out.failure(err)
	}
	if reg != nil {
		if report.Metrics, err = gather(reg); err != nil {
			return out.failure(err)
		}
	}

	return out.success(report, func(w io.Writer) error {
		_, err := io.WriteString(w, renderReport(lipgloss.NewRenderer(w), report))
		return err
	})
}

func describe(m *ir.Module) (*inspectReport, error) {
	report := &inspectReport{
		Module: m.Name(),
		ID:     m.ID().String(),
		Target: m.Target(),
	}
	for _, fn := range m.Functions() {
		fr := functionReport{
			Name:       m.ValueName(fn),
			Type:       m.TypeString(m.TypeOf(fn)),
			Attributes: m.AttributeCount(fn, capi.AttributeFunctionIndex),
		}
		err := m.WithValue(fn, func(v *ir.Value) error {
			fr.Params = v.ParamCount()
			fr.Blocks = v.BlockCount()
			return nil
		})
		if err != nil {
			return nil, err
		}
		fr.Defined = fr.Blocks > 0
		report.Functions = append(report.Functions, fr)
	}
	report.Entities = entityCounts(m.Stats())
	return report, nil
}

// gather flattens the lifecycle counters into "store/event" keys.
func gather(reg *prometheus.Registry) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		if !strings.HasSuffix(mf.GetName(), "_events_total") {
			continue
		}
		for _, metric := range mf.GetMetric() {
			var store, event string
			for _, l := range metric.GetLabel() {
				switch l.GetName() {
				case "store":
					store = l.GetValue()
				case "event":
					event = l.GetValue()
				}
			}
			out[store+"/"+event] = metric.GetCounter().GetValue()
		}
	}
	return out, nil
}

func renderReport(r *lipgloss.Renderer, rep *inspectReport) string {
	title := r.NewStyle().Bold(true)
	label := r.NewStyle().Foreground(lipgloss.Color("#666666"))
	name := r.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	typ := r.NewStyle().Foreground(lipgloss.Color("#87CEEB"))

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", title.Render("Module "+rep.Module), label.Render(rep.ID))
	if rep.Target != "" {
		fmt.Fprintf(&b, "%s   %s\n", label.Render("target"), rep.Target)
	}
	e := rep.Entities
	fmt.Fprintf(&b, "%s types %d, values %d, blocks %d, attributes %d\n",
		label.Render("entities"), e.Types, e.Values, e.Blocks, e.Attributes)

	b.WriteString("\n" + title.Render("Functions") + "\n")
	for _, f := range rep.Functions {
		kind, pad := "declare", " "
		if f.Defined {
			kind, pad = "define", "  "
		}
		fmt.Fprintf(&b, "  %s%s%s %s", label.Render(kind), pad, name.Render(f.Name), typ.Render(f.Type))
		if f.Defined {
			fmt.Fprintf(&b, "  blocks=%d", f.Blocks)
		}
		if f.Attributes > 0 {
			fmt.Fprintf(&b, "  attrs=%d", f.Attributes)
		}
		b.WriteString("\n")
	}

	if len(rep.Metrics) > 0 {
		b.WriteString("\n" + title.Render("Lifecycle") + "\n")
		keys := make([]string, 0, len(rep.Metrics))
		for k := range rep.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s %g\n", label.Render(k), rep.Metrics[k])
		}
	}
	return b.String()
}
