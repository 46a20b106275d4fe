package recipe

import (
	"strconv"
	"strings"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/entity"
	"github.com/wippyai/irbind/errors"
	"github.com/wippyai/irbind/ir"
)

// Build creates a module from r through lib. On failure the partially built module is
// disposed and the first error is returned.
func Build(lib capi.Library, r *Recipe, observers ...entity.Observer) (*ir.Module, error) {
	m, err := ir.NewModule(lib, ir.Options{
		Name:           r.Name,
		SourceFilename: r.SourceFilename,
		TargetTriple:   r.Target,
		Observers:      observers,
	})
	if err != nil {
		return nil, err
	}
	b := &builder{
		m:     m,
		types: make(map[string]ir.TypeID),
		funcs: make(map[string]ir.ValueID, len(r.Functions)),
	}
	if err := b.build(r); err != nil {
		m.Dispose()
		return nil, err
	}
	return m, nil
}

type builder struct {
	m     *ir.Module
	types map[string]ir.TypeID
	funcs map[string]ir.ValueID
}

func (b *builder) build(r *Recipe) error {
	for i := range r.Functions {
		if err := b.declare(&r.Functions[i]); err != nil {
			return err
		}
	}
	for i := range r.Functions {
		f := &r.Functions[i]
		if f.IsDeclaration() {
			continue
		}
		if err := b.body(f); err != nil {
			return err
		}
	}
	return nil
}

// typ resolves a type spelled as in textual IR: iN, float, double or void.
func (b *builder) typ(name string) (ir.TypeID, error) {
	if id, ok := b.types[name]; ok {
		return id, nil
	}
	var (
		id  ir.TypeID
		err error
	)
	switch name {
	case "void":
		id = b.m.VoidType()
	case "float":
		id = b.m.FloatType()
	case "double":
		id = b.m.DoubleType()
	default:
		bits, perr := strconv.ParseUint(strings.TrimPrefix(name, "i"), 10, 32)
		if !strings.HasPrefix(name, "i") || perr != nil {
			return id, errors.New(errors.PhaseConfig, errors.KindUnsupported).
				Value(name).
				Detail("unknown type %q", name).
				Build()
		}
		id, err = b.m.IntType(uint(bits))
		if err != nil {
			return id, err
		}
	}
	b.types[name] = id
	return id, nil
}

func (b *builder) declare(f *Function) error {
	ret, err := b.typ(f.ResultType())
	if err != nil {
		return err
	}
	params := make([]ir.TypeID, len(f.Params))
	for i, p := range f.Params {
		if params[i], err = b.typ(p.Type); err != nil {
			return err
		}
	}
	sig, err := b.m.FunctionType(ret, params, false)
	if err != nil {
		return err
	}
	fn, err := b.m.AddFunction(f.Name, sig)
	if err != nil {
		return err
	}
	b.funcs[f.Name] = fn

	if err := b.attributes(fn, capi.AttributeFunctionIndex, f.Attributes); err != nil {
		return err
	}
	if err := b.attributes(fn, capi.AttributeReturnIndex, f.ResultAttributes); err != nil {
		return err
	}
	for i, p := range f.Params {
		if p.Name != "" {
			v, err := b.m.Param(fn, i)
			if err != nil {
				return err
			}
			if err := b.m.SetName(v, p.Name); err != nil {
				return err
			}
		}
		if err := b.attributes(fn, capi.ParamIndex(i), p.Attributes); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) attributes(fn ir.ValueID, idx capi.AttributeIndex, names []string) error {
	for _, name := range names {
		attr, err := b.m.EnumAttribute(name)
		if err != nil {
			return err
		}
		if err := b.m.AddAttribute(fn, idx, attr); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) body(f *Function) error {
	fn := b.funcs[f.Name]
	entry, err := b.m.AppendBlock(fn, "entry")
	if err != nil {
		return err
	}
	if err := b.m.PositionAtEnd(entry); err != nil {
		return err
	}

	locals := make(map[string]ir.ValueID)
	for i, p := range f.Params {
		if p.Name == "" {
			continue
		}
		v, err := b.m.Param(fn, i)
		if err != nil {
			return err
		}
		locals[p.Name] = v
	}

	for i, s := range f.Body {
		path := []string{f.Name, "body", strconv.Itoa(i)}
		v, err := b.step(s, locals, path)
		if err != nil {
			return err
		}
		if s.Name == "" || s.Op == OpRet {
			continue
		}
		if _, dup := locals[s.Name]; dup {
			return errors.New(errors.PhaseConfig, errors.KindDuplicate).
				Path(path...).
				Detail("name %q already defined in %s", s.Name, f.Name).
				Build()
		}
		locals[s.Name] = v
	}
	return nil
}

func (b *builder) step(s Step, locals map[string]ir.ValueID, path []string) (ir.ValueID, error) {
	args := make([]ir.ValueID, len(s.Args))
	for i, name := range s.Args {
		v, ok := locals[name]
		if !ok {
			return ir.ValueID{}, errors.New(errors.PhaseConfig, errors.KindNotFound).
				Path(path...).
				Detail("operand %q is not defined", name).
				Build()
		}
		args[i] = v
	}

	// Constants are not instructions; their name only labels them for later steps.
	switch s.Op {
	case OpConst:
		t, err := b.typ(s.Type)
		if err != nil {
			return ir.ValueID{}, err
		}
		return b.m.ConstInt(t, s.Value)
	case OpICmp:
		pred, ok := capi.IntPredicateForName(s.Pred)
		if !ok {
			return ir.ValueID{}, invalid(path, "unknown icmp predicate "+strconv.Quote(s.Pred))
		}
		if err := arity(s, 2, path); err != nil {
			return ir.ValueID{}, err
		}
		return b.m.ICmp(pred, args[0], args[1], s.Name)
	case OpCall:
		callee, ok := b.funcs[s.Callee]
		if !ok {
			return ir.ValueID{}, errors.New(errors.PhaseConfig, errors.KindNotFound).
				Path(path...).
				Detail("callee %q is not declared", s.Callee).
				Build()
		}
		return b.m.Call(callee, args, s.Name)
	case OpRet:
		switch len(args) {
		case 0:
			return b.m.RetVoid()
		case 1:
			return b.m.Ret(args[0])
		default:
			return ir.ValueID{}, arity(s, 1, path)
		}
	}

	op, ok := capi.OpcodeForName(s.Op)
	if !ok {
		return ir.ValueID{}, errors.New(errors.PhaseConfig, errors.KindUnsupported).
			Path(path...).
			Detail("unknown op %q", s.Op).
			Build()
	}
	if err := arity(s, 2, path); err != nil {
		return ir.ValueID{}, err
	}
	return b.m.BinOp(op, args[0], args[1], s.Name)
}

func arity(s Step, n int, path []string) error {
	if len(s.Args) == n {
		return nil
	}
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(path...).
		Want(strconv.Itoa(n) + " args").
		Got(strconv.Itoa(len(s.Args))).
		Detail("%s operands", s.Op).
		Build()
}
