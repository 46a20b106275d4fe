package ir

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/entity"
)

// State is the lifecycle stage of a Module.
type State uint8

const (
	StateEmpty State = iota
	StatePopulated
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Store names, as reported in events and violations.
const (
	TypesStore      = "types"
	ValuesStore     = "values"
	BlocksStore     = "blocks"
	AttributesStore = "attributes"
)

// Options configures a new Module.
type Options struct {
	// Name is the foreign module identifier. Defaults to "module".
	Name string
	// SourceFilename is recorded in emitted IR when set.
	SourceFilename string
	// TargetTriple is validated by the foreign library when set.
	TargetTriple string
	// Observers are subscribed to every store of the module.
	Observers []entity.Observer
}

// Module owns a foreign context, module and builder and the stores of every entity
// created through it.
type Module struct {
	lib     capi.Library
	types   *entity.BiStore[*Type, capi.TypeRef]
	values  *entity.BiStore[*Value, capi.ValueRef]
	blocks  *entity.Store[*BasicBlock, capi.BasicBlockRef]
	attrs   *entity.Store[*Attribute, capi.AttributeRef]
	name    string
	ctx     capi.ContextRef
	mod     capi.ModuleRef
	builder capi.BuilderRef
	id      uuid.UUID
	state   State
}

// NewModule creates a module and the foreign objects it owns.
func NewModule(lib capi.Library, opts Options) (*Module, error) {
	if opts.Name == "" {
		opts.Name = "module"
	}
	m := &Module{
		lib:  lib,
		name: opts.Name,
		id:   uuid.New(),
	}
	m.ctx = lib.ContextCreate()
	m.mod = lib.ModuleCreateWithName(opts.Name, m.ctx)
	m.builder = lib.CreateBuilder(m.ctx)

	m.types = entity.NewBiStore(TypesStore,
		func(r capi.TypeRef) *Type { return &Type{lib: lib, ref: r} },
		lib.ReleaseType)
	m.values = entity.NewBiStore(ValuesStore,
		func(r capi.ValueRef) *Value { return &Value{lib: lib, ref: r} },
		lib.ReleaseValue)
	m.blocks = entity.NewStore(BlocksStore,
		func(r capi.BasicBlockRef) *BasicBlock { return &BasicBlock{lib: lib, ref: r} },
		lib.ReleaseBasicBlock)
	m.attrs = entity.NewStore(AttributesStore,
		func(r capi.AttributeRef) *Attribute { return &Attribute{lib: lib, ref: r} },
		lib.ReleaseAttribute)

	for _, o := range opts.Observers {
		m.Subscribe(o)
	}

	if opts.SourceFilename != "" {
		lib.SetSourceFileName(m.mod, opts.SourceFilename)
	}
	if opts.TargetTriple != "" {
		if err := lib.SetTarget(m.mod, opts.TargetTriple); err != nil {
			m.Dispose()
			return nil, err
		}
	}

	Logger().Debug("module created",
		zap.String("module", m.name),
		zap.Stringer("id", m.id),
	)
	return m, nil
}

// ID returns the container identity used in logs.
func (m *Module) ID() uuid.UUID {
	return m.id
}

// Name returns the foreign module identifier.
func (m *Module) Name() string {
	return m.name
}

// State returns the lifecycle stage.
func (m *Module) State() State {
	return m.state
}

// Target returns the target triple, empty when unset.
func (m *Module) Target() string {
	m.live("target")
	return m.lib.GetTarget(m.mod)
}

// Subscribe registers o with every store of the module.
func (m *Module) Subscribe(o entity.Observer) {
	m.live("subscribe")
	m.types.Subscribe(o)
	m.values.Subscribe(o)
	m.blocks.Subscribe(o)
	m.attrs.Subscribe(o)
}

// Stats counts the entities currently held by each store.
type Stats struct {
	Types      int
	Values     int
	Blocks     int
	Attributes int
}

// Stats returns the number of live entities per store.
func (m *Module) Stats() Stats {
	m.live("stats")
	return Stats{
		Types:      m.types.Live(),
		Values:     m.values.Live(),
		Blocks:     m.blocks.Live(),
		Attributes: m.attrs.Live(),
	}
}

// Dispose tears down the stores, then the builder, the foreign module and the
// foreign context. Calls after the first have no effect. If a store reports
// entities still on loan, the foreign objects are disposed anyway and the first
// violation is raised afterwards.
func (m *Module) Dispose() {
	if m.state == StateDisposed {
		return
	}
	stats := Stats{
		Types:      m.types.Live(),
		Values:     m.values.Live(),
		Blocks:     m.blocks.Live(),
		Attributes: m.attrs.Live(),
	}
	m.state = StateDisposed

	var leak any
	for _, c := range []func(){m.attrs.Close, m.blocks.Close, m.values.Close, m.types.Close} {
		if r := closeStore(c); r != nil && leak == nil {
			leak = r
		}
	}

	m.lib.DisposeBuilder(m.builder)
	m.lib.DisposeModule(m.mod)
	m.lib.ContextDispose(m.ctx)

	Logger().Debug("module disposed",
		zap.String("module", m.name),
		zap.Stringer("id", m.id),
		zap.Int("types", stats.Types),
		zap.Int("values", stats.Values),
		zap.Int("blocks", stats.Blocks),
		zap.Int("attributes", stats.Attributes),
	)
	if leak != nil {
		panic(leak)
	}
}

// closeStore runs fn and returns what it panicked with, if anything.
func closeStore(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

// live panics with a violation when the module has been disposed.
func (m *Module) live(op string) {
	if m.state != StateDisposed {
		return
	}
	v := &entity.Violation{
		Store:  "module " + m.name,
		Op:     op,
		Index:  -1,
		Detail: "module is disposed",
	}
	Logger().Error("entity contract violation",
		zap.String("module", m.name),
		zap.Stringer("id", m.id),
		zap.String("op", op),
	)
	panic(v)
}

// nullRef reports a null pointer handed back for a live entity, which only a misused
// foreign library produces.
func (m *Module) nullRef(store string) {
	Logger().Error("foreign library returned a null reference",
		zap.String("module", m.name),
		zap.String("store", store),
	)
	panic(&entity.Violation{Store: store, Op: entity.OpInsert, Index: -1, Detail: "foreign library returned a null reference"})
}

func (m *Module) populated() {
	if m.state == StateEmpty {
		m.state = StatePopulated
	}
}

func (m *Module) String() string {
	return fmt.Sprintf("module %q (%s, %s)", m.name, m.id, m.state)
}
