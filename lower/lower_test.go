package lower

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"github.com/wippyai/irbind/errors"
)

func TestAppendU32(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
		{0xFFFFFFFF, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tt := range tests {
		if got := appendU32(nil, tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("appendU32(%d) = %x, want %x", tt.v, got, tt.want)
		}
	}
}

func TestAppendS64(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xbf, 0x7f}},
		{-123456, []byte{0xc0, 0xbb, 0x78}},
	}
	for _, tt := range tests {
		if got := appendS64(nil, tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("appendS64(%d) = %x, want %x", tt.v, got, tt.want)
		}
	}
}

func TestModule_Add(t *testing.T) {
	m := ir.NewModule()
	a := ir.NewParam("a", types.I32)
	b := ir.NewParam("b", types.I32)
	f := m.NewFunc("add", types.I32, a, b)
	entry := f.NewBlock("entry")
	sum := entry.NewAdd(a, b)
	entry.NewRet(sum)

	got, err := Module(m)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}

	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,
		0x0a, 0x0f, 0x01, 0x0d, 0x01, 0x01, 0x7f,
		0x20, 0x00, 0x20, 0x01, 0x6a, 0x21, 0x02, 0x20, 0x02, 0x0b,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Module:\n got %x\nwant %x", got, want)
	}
}

func TestModule_Constants(t *testing.T) {
	m := ir.NewModule()
	x := ir.NewParam("x", types.I64)
	f := m.NewFunc("dec", types.I64, x)
	entry := f.NewBlock("")
	entry.NewRet(entry.NewSub(x, constant.NewInt(types.I64, 1)))

	got, err := Module(m)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	// local.get 0, i64.const 1, i64.sub
	if !bytes.Contains(got, []byte{0x20, 0x00, 0x42, 0x01, 0x7d}) {
		t.Errorf("missing i64 sub sequence in %x", got)
	}
}

func TestModule_BoolConstant(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("yes", types.I1)
	entry := f.NewBlock("")
	entry.NewRet(constant.NewInt(types.I1, -1))

	got, err := Module(m)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	// i32.const 1, end
	if !bytes.Contains(got, []byte{0x41, 0x01, 0x0b}) {
		t.Errorf("i1 true not lowered to i32.const 1 in %x", got)
	}
	if bytes.Contains(got, []byte{0x41, 0x7f}) {
		t.Errorf("i1 true lowered to i32.const -1 in %x", got)
	}
}

func TestModule_CompareAndCall(t *testing.T) {
	m := ir.NewModule()
	ext := m.NewFunc("host_log", types.Void, ir.NewParam("", types.I32))

	x := ir.NewParam("x", types.I32)
	f := m.NewFunc("is_neg", types.I1, x)
	entry := f.NewBlock("entry")
	entry.NewCall(ext, x)
	cmp := entry.NewICmp(enum.IPredSLT, x, constant.NewInt(types.I32, 0))
	entry.NewRet(cmp)

	got, err := Module(m)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	if !bytes.Contains(got, []byte{0x03, 'e', 'n', 'v', 0x08, 'h', 'o', 's', 't', '_', 'l', 'o', 'g', 0x00, 0x00}) {
		t.Errorf("missing env.host_log import in %x", got)
	}
	// call 0, then local.get 0, i32.const 0, i32.lt_s
	if !bytes.Contains(got, []byte{0x20, 0x00, 0x10, 0x00, 0x20, 0x00, 0x41, 0x00, 0x48}) {
		t.Errorf("missing call and compare sequence in %x", got)
	}
	// the defined function is exported with index 1
	if !bytes.Contains(got, []byte{0x06, 'i', 's', '_', 'n', 'e', 'g', 0x00, 0x01}) {
		t.Errorf("missing is_neg export in %x", got)
	}
}

func TestModule_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		build func(m *ir.Module)
	}{
		{"multiple blocks", func(m *ir.Module) {
			f := m.NewFunc("jump", types.Void)
			a := f.NewBlock("a")
			b := f.NewBlock("b")
			a.NewBr(b)
			b.NewRet(nil)
		}},
		{"narrow arithmetic", func(m *ir.Module) {
			p := ir.NewParam("p", types.I8)
			f := m.NewFunc("narrow", types.I8, p)
			e := f.NewBlock("")
			e.NewRet(e.NewAdd(p, p))
		}},
		{"variadic", func(m *ir.Module) {
			f := m.NewFunc("printf", types.I32, ir.NewParam("", types.I32))
			f.Sig.Variadic = true
		}},
		{"boolean arithmetic", func(m *ir.Module) {
			p := ir.NewParam("p", types.I1)
			f := m.NewFunc("bits", types.I1, p)
			e := f.NewBlock("")
			e.NewRet(e.NewXor(p, p))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ir.NewModule()
			tt.build(m)
			_, err := Module(m)
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			if e.Phase != errors.PhaseLower || e.Kind != errors.KindUnsupported {
				t.Errorf("got %s/%s, want lower/unsupported", e.Phase, e.Kind)
			}
		})
	}
}
