package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/irbind/errors"
)

// HostModule is the import module of lowered function declarations.
const HostModule = "env"

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// Engine compiles and instantiates lowered modules.
type Engine struct {
	runtime   wazero.Runtime
	hostFuncs map[string]HostFunc
	hostDone  bool
	mu        sync.Mutex
}

// HostFunc implements a function declared but not defined in the IR module.
type HostFunc struct {
	Fn      api.GoModuleFunc
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// New creates an engine. A nil cfg uses the defaults.
func New(ctx context.Context, cfg *Config) *Engine {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Engine{
		runtime:   wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		hostFuncs: make(map[string]HostFunc),
	}
}

// RegisterHostFunc makes hf available to modules loaded afterwards.
func (e *Engine) RegisterHostFunc(hf HostFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hostDone {
		return errors.InvalidInput(errors.PhaseExecute, "host functions must be registered before the first Load")
	}
	if _, exists := e.hostFuncs[hf.Name]; exists {
		return errors.Duplicate(errors.PhaseExecute, "host function", hf.Name)
	}
	e.hostFuncs[hf.Name] = hf
	return nil
}

func (e *Engine) instantiateHost(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hostDone {
		return nil
	}
	e.hostDone = true
	if len(e.hostFuncs) == 0 {
		return nil
	}
	b := e.runtime.NewHostModuleBuilder(HostModule)
	for name, hf := range e.hostFuncs {
		b = b.NewFunctionBuilder().
			WithGoModuleFunction(hf.Fn, hf.Params, hf.Results).
			Export(name)
	}
	if _, err := b.Instantiate(ctx); err != nil {
		return errors.Instantiation(err)
	}
	return nil
}

// Load compiles and instantiates a wasm binary.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Module, error) {
	if err := e.instantiateHost(ctx); err != nil {
		return nil, err
	}
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.New(errors.PhaseExecute, errors.KindInstantiate).
			Detail("compile module").
			Cause(err).
			Build()
	}
	instance, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Instantiation(err)
	}
	Logger().Debug("module loaded",
		zap.Int("bytes", len(wasmBytes)),
		zap.Int("exports", len(compiled.ExportedFunctions())),
	)
	return &Module{compiled: compiled, instance: instance}, nil
}

// Close releases the runtime and every module loaded from it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Module is an instantiated lowered module.
type Module struct {
	compiled wazero.CompiledModule
	instance api.Module
}

// Export describes an exported function.
type Export struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Signature renders the export in wasm text notation.
func (x Export) Signature() string {
	s := "func " + x.Name + "("
	for i, p := range x.Params {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(p)
	}
	s += ")"
	switch len(x.Results) {
	case 0:
	case 1:
		s += " -> " + api.ValueTypeName(x.Results[0])
	default:
		s += " -> ("
		for i, r := range x.Results {
			if i > 0 {
				s += ", "
			}
			s += api.ValueTypeName(r)
		}
		s += ")"
	}
	return s
}

// Exports lists the exported functions sorted by name.
func (m *Module) Exports() []Export {
	defs := m.compiled.ExportedFunctions()
	out := make([]Export, 0, len(defs))
	for name, def := range defs {
		out = append(out, Export{Name: name, Params: def.ParamTypes(), Results: def.ResultTypes()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Export returns the export called name.
func (m *Module) Export(name string) (Export, bool) {
	def, ok := m.compiled.ExportedFunctions()[name]
	if !ok {
		return Export{}, false
	}
	return Export{Name: name, Params: def.ParamTypes(), Results: def.ResultTypes()}, true
}

// Call invokes the export called name with encoded arguments and returns its
// encoded results.
func (m *Module) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := m.instance.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseExecute, "export", name)
	}
	if want := len(fn.Definition().ParamTypes()); want != len(args) {
		return nil, errors.New(errors.PhaseExecute, errors.KindTypeMismatch).
			Path(name).
			Want(fmt.Sprintf("%d arguments", want)).
			Got(fmt.Sprintf("%d arguments", len(args))).
			Build()
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.New(errors.PhaseExecute, errors.KindTrap).
			Path(name).
			Detail("call failed").
			Cause(err).
			Build()
	}
	return results, nil
}

// Close releases the instance.
func (m *Module) Close(ctx context.Context) error {
	if err := m.instance.Close(ctx); err != nil {
		return err
	}
	return m.compiled.Close(ctx)
}
