package lower

import "bytes"

const (
	magic   = "\x00asm"
	version = "\x01\x00\x00\x00"

	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionExport   byte = 7
	sectionCode     byte = 10

	funcTypeByte byte = 0x60
	kindFunc     byte = 0x00
)

type valType byte

const (
	valI32 valType = 0x7F
	valI64 valType = 0x7E
	valF32 valType = 0x7D
	valF64 valType = 0x7C
)

func (v valType) String() string {
	switch v {
	case valI32:
		return "i32"
	case valI64:
		return "i64"
	case valF32:
		return "f32"
	case valF64:
		return "f64"
	default:
		return "unknown"
	}
}

type funcType struct {
	params  []valType
	results []valType
}

func (ft funcType) key() string {
	var b bytes.Buffer
	for _, p := range ft.params {
		b.WriteByte(byte(p))
	}
	b.WriteByte(0)
	for _, r := range ft.results {
		b.WriteByte(byte(r))
	}
	return b.String()
}

type importFunc struct {
	module  string
	name    string
	typeIdx uint32
}

type body struct {
	locals []valType
	code   []byte
}

// binaryModule is the subset of a wasm module the lowering produces.
type binaryModule struct {
	types    []funcType
	typeIdx  map[string]uint32
	imports  []importFunc
	funcs    []uint32
	exports  []string
	bodies   []body
	firstDef uint32
}

func (m *binaryModule) internType(ft funcType) uint32 {
	if m.typeIdx == nil {
		m.typeIdx = make(map[string]uint32)
	}
	k := ft.key()
	if idx, ok := m.typeIdx[k]; ok {
		return idx
	}
	idx := uint32(len(m.types))
	m.types = append(m.types, ft)
	m.typeIdx[k] = idx
	return idx
}

func (m *binaryModule) encode() []byte {
	out := []byte(magic + version)

	if len(m.types) > 0 {
		sec := appendU32(nil, uint32(len(m.types)))
		for _, ft := range m.types {
			sec = append(sec, funcTypeByte)
			sec = appendValTypes(sec, ft.params)
			sec = appendValTypes(sec, ft.results)
		}
		out = appendSection(out, sectionType, sec)
	}

	if len(m.imports) > 0 {
		sec := appendU32(nil, uint32(len(m.imports)))
		for _, imp := range m.imports {
			sec = appendName(sec, imp.module)
			sec = appendName(sec, imp.name)
			sec = append(sec, kindFunc)
			sec = appendU32(sec, imp.typeIdx)
		}
		out = appendSection(out, sectionImport, sec)
	}

	if len(m.funcs) > 0 {
		sec := appendU32(nil, uint32(len(m.funcs)))
		for _, idx := range m.funcs {
			sec = appendU32(sec, idx)
		}
		out = appendSection(out, sectionFunction, sec)
	}

	if len(m.exports) > 0 {
		sec := appendU32(nil, uint32(len(m.exports)))
		for i, name := range m.exports {
			sec = appendName(sec, name)
			sec = append(sec, kindFunc)
			sec = appendU32(sec, m.firstDef+uint32(i))
		}
		out = appendSection(out, sectionExport, sec)
	}

	if len(m.bodies) > 0 {
		sec := appendU32(nil, uint32(len(m.bodies)))
		for _, b := range m.bodies {
			fn := appendLocals(nil, b.locals)
			fn = append(fn, b.code...)
			sec = appendU32(sec, uint32(len(fn)))
			sec = append(sec, fn...)
		}
		out = appendSection(out, sectionCode, sec)
	}

	return out
}

func appendSection(dst []byte, id byte, data []byte) []byte {
	dst = append(dst, id)
	dst = appendU32(dst, uint32(len(data)))
	return append(dst, data...)
}

func appendValTypes(dst []byte, vts []valType) []byte {
	dst = appendU32(dst, uint32(len(vts)))
	for _, v := range vts {
		dst = append(dst, byte(v))
	}
	return dst
}

// appendLocals writes local declarations as runs of equal types.
func appendLocals(dst []byte, locals []valType) []byte {
	type run struct {
		count uint32
		t     valType
	}
	var runs []run
	for _, t := range locals {
		if n := len(runs); n > 0 && runs[n-1].t == t {
			runs[n-1].count++
			continue
		}
		runs = append(runs, run{count: 1, t: t})
	}
	dst = appendU32(dst, uint32(len(runs)))
	for _, r := range runs {
		dst = appendU32(dst, r.count)
		dst = append(dst, byte(r.t))
	}
	return dst
}
