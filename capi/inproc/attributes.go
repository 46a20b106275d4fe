package inproc

import (
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

var funcAttrs = map[string]enum.FuncAttr{
	"alwaysinline": enum.FuncAttrAlwaysInline,
	"cold":         enum.FuncAttrCold,
	"inlinehint":   enum.FuncAttrInlineHint,
	"minsize":      enum.FuncAttrMinSize,
	"noinline":     enum.FuncAttrNoInline,
	"norecurse":    enum.FuncAttrNoRecurse,
	"noreturn":     enum.FuncAttrNoReturn,
	"nounwind":     enum.FuncAttrNoUnwind,
	"optnone":      enum.FuncAttrOptNone,
	"optsize":      enum.FuncAttrOptSize,
	"readnone":     enum.FuncAttrReadNone,
	"readonly":     enum.FuncAttrReadOnly,
}

var paramAttrs = map[string]enum.ParamAttr{
	"inreg":     enum.ParamAttrInReg,
	"noalias":   enum.ParamAttrNoAlias,
	"nocapture": enum.ParamAttrNoCapture,
	"nonnull":   enum.ParamAttrNonNull,
	"signext":   enum.ParamAttrSignExt,
	"zeroext":   enum.ParamAttrZeroExt,
}

var returnAttrs = map[string]enum.ReturnAttr{
	"inreg":   enum.ReturnAttrInReg,
	"noalias": enum.ReturnAttrNoAlias,
	"nonnull": enum.ReturnAttrNonNull,
	"signext": enum.ReturnAttrSignExt,
	"zeroext": enum.ReturnAttrZeroExt,
}

// attributeNames lists every known attribute; kind k names attributeNames[k-1].
var attributeNames = func() []string {
	seen := make(map[string]bool)
	for n := range funcAttrs {
		seen[n] = true
	}
	for n := range paramAttrs {
		seen[n] = true
	}
	for n := range returnAttrs {
		seen[n] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}()

func (l *Library) GetEnumAttributeKindForName(name string) uint {
	for i, n := range attributeNames {
		if n == name {
			return uint(i + 1)
		}
	}
	return 0
}

func (l *Library) CreateEnumAttribute(c capi.ContextRef, kind uint) (capi.AttributeRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctx, err := l.lookup("LLVMCreateEnumAttribute", c.Ptr(), kindContext)
	if err != nil {
		return capi.AttributeRef{}, err
	}
	if kind == 0 || int(kind) > len(attributeNames) {
		return capi.AttributeRef{}, errors.New(errors.PhaseBuild, errors.KindNotFound).
			Value(kind).
			Detail("unknown attribute kind %d", kind).
			Build()
	}
	o := l.alloc(&object{kind: kindAttribute, owner: ctx.ptr, attr: &attribute{kind: kind, name: attributeNames[kind-1]}})
	return capi.AttributeRefOf(l.handOut(o)), nil
}

func (l *Library) GetEnumAttributeKind(a capi.AttributeRef) uint {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetEnumAttributeKind", a.Ptr(), kindAttribute)
	if err != nil {
		return 0
	}
	return o.attr.kind
}

func (l *Library) GetAttributeName(a capi.AttributeRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("GetAttributeName", a.Ptr(), kindAttribute)
	if err != nil {
		return ""
	}
	return o.attr.name
}

func (l *Library) AddAttributeAtIndex(fn capi.ValueRef, idx capi.AttributeIndex, a capi.AttributeRef) error {
	const op = "LLVMAddAttributeAtIndex"
	l.mu.Lock()
	defer l.mu.Unlock()
	fo, f, err := l.function(op, fn)
	if err != nil {
		return err
	}
	ao, err := l.lookup(op, a.Ptr(), kindAttribute)
	if err != nil {
		return err
	}
	if ao.owner != l.contextOf(fo).ptr {
		return errors.InvalidInput(errors.PhaseBuild, "attribute belongs to another context")
	}
	name := ao.attr.name
	switch {
	case idx == capi.AttributeFunctionIndex:
		fa, ok := funcAttrs[name]
		if !ok {
			return misplaced(name, "functions")
		}
		for _, have := range f.FuncAttrs {
			if have == ir.FuncAttribute(fa) {
				return nil
			}
		}
		f.FuncAttrs = append(f.FuncAttrs, fa)
	case idx == capi.AttributeReturnIndex:
		ra, ok := returnAttrs[name]
		if !ok {
			return misplaced(name, "return values")
		}
		for _, have := range f.ReturnAttrs {
			if have == ir.ReturnAttribute(ra) {
				return nil
			}
		}
		f.ReturnAttrs = append(f.ReturnAttrs, ra)
	default:
		i := int(idx) - 1
		if i < 0 || i >= len(f.Params) {
			return errors.OutOfBounds(errors.PhaseBuild, []string{f.Name(), "params"}, i, len(f.Params))
		}
		pa, ok := paramAttrs[name]
		if !ok {
			return misplaced(name, "parameters")
		}
		p := f.Params[i]
		for _, have := range p.Attrs {
			if have == ir.ParamAttribute(pa) {
				return nil
			}
		}
		p.Attrs = append(p.Attrs, pa)
	}
	return nil
}

func misplaced(name, where string) error {
	return errors.New(errors.PhaseBuild, errors.KindInvalidInput).
		Value(name).
		Detail("attribute %q does not apply to %s", name, where).
		Build()
}

func (l *Library) GetAttributeCountAtIndex(fn capi.ValueRef, idx capi.AttributeIndex) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, f, err := l.function("LLVMGetAttributeCountAtIndex", fn)
	if err != nil {
		return 0
	}
	switch {
	case idx == capi.AttributeFunctionIndex:
		return len(f.FuncAttrs)
	case idx == capi.AttributeReturnIndex:
		return len(f.ReturnAttrs)
	default:
		i := int(idx) - 1
		if i < 0 || i >= len(f.Params) {
			return 0
		}
		return len(f.Params[i].Attrs)
	}
}
