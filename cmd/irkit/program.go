package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/irbind/capi/inproc"
	"github.com/wippyai/irbind/engine"
	"github.com/wippyai/irbind/entity"
	"github.com/wippyai/irbind/ir"
	"github.com/wippyai/irbind/recipe"
)

// program is a recipe built into a module over its own in-process library.
type program struct {
	recipe *recipe.Recipe
	lib    *inproc.Library
	module *ir.Module
}

func loadProgram(path string, observers []entity.Observer) (*program, error) {
	r, err := recipe.Load(path)
	if err != nil {
		return nil, err
	}
	lib := inproc.New()
	m, err := recipe.Build(lib, r, observers...)
	if err != nil {
		return nil, err
	}
	return &program{recipe: r, lib: lib, module: m}, nil
}

// close disposes the module. Faults recorded by the library are logged.
func (p *program) close(log *zap.Logger) {
	p.module.Dispose()
	for _, f := range p.lib.Faults() {
		log.Error("foreign library fault", zap.Stringer("fault", f))
	}
}

func (p *program) wasm() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.module.WriteWasm(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// instantiate loads the program into a new engine. Declared functions are bound to host
// stubs that log their arguments and return zero.
func (p *program) instantiate(ctx context.Context, log *zap.Logger) (*engine.Engine, *engine.Module, error) {
	bin, err := p.wasm()
	if err != nil {
		return nil, nil, err
	}
	e := engine.New(ctx, nil)
	for _, f := range p.recipe.Functions {
		if !f.IsDeclaration() {
			continue
		}
		hf, err := stub(f, log)
		if err != nil {
			e.Close(ctx)
			return nil, nil, err
		}
		if err := e.RegisterHostFunc(hf); err != nil {
			e.Close(ctx)
			return nil, nil, err
		}
	}
	mod, err := e.Load(ctx, bin)
	if err != nil {
		e.Close(ctx)
		return nil, nil, err
	}
	return e, mod, nil
}

func stub(f recipe.Function, log *zap.Logger) (engine.HostFunc, error) {
	hf := engine.HostFunc{Name: f.Name}
	for _, p := range f.Params {
		vt, err := coreType(p.Type)
		if err != nil {
			return hf, err
		}
		hf.Params = append(hf.Params, vt)
	}
	if f.ResultType() != "void" {
		vt, err := coreType(f.ResultType())
		if err != nil {
			return hf, err
		}
		hf.Results = []api.ValueType{vt}
	}
	name, nparams, nresults := f.Name, len(hf.Params), len(hf.Results)
	hf.Fn = func(_ context.Context, _ api.Module, stack []uint64) {
		log.Info("host stub called", zap.String("func", name), zap.Uint64s("args", stack[:nparams]))
		for i := 0; i < nresults; i++ {
			stack[i] = 0
		}
	}
	return hf, nil
}

// exportedFuncs describes the functions the recipe defines, sorted by name.
func exportedFuncs(r *recipe.Recipe) ([]funcInfo, error) {
	var funcs []funcInfo
	for _, f := range r.Functions {
		if f.IsDeclaration() {
			continue
		}
		fi := funcInfo{name: f.Name}
		for i, p := range f.Params {
			wt, err := witType(p.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: param %d: %w", f.Name, i, err)
			}
			pname := p.Name
			if pname == "" {
				pname = fmt.Sprintf("arg%d", i)
			}
			fi.params = append(fi.params, paramInfo{name: pname, witType: wt, typeStr: witTypeStr(wt)})
		}
		if f.ResultType() != "void" {
			wt, err := witType(f.ResultType())
			if err != nil {
				return nil, fmt.Errorf("%s: result: %w", f.Name, err)
			}
			fi.result = wt
			fi.resultType = witTypeStr(wt)
		}
		funcs = append(funcs, fi)
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].name < funcs[j].name })
	return funcs, nil
}

func findFunc(funcs []funcInfo, name string) (funcInfo, bool) {
	for _, f := range funcs {
		if f.name == name {
			return f, true
		}
	}
	return funcInfo{}, false
}
