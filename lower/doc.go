// Package lower translates llir modules into WebAssembly binaries.
//
// The translation covers straight-line code: every defined function must consist of
// a single basic block ending in ret. Integer types of width 32 and 64 map to i32 and
// i64, i1 maps to i32 and may only be produced by icmp, float and double map to f32
// and f64. Function declarations become imports from the "env" module and every
// defined function is exported under its own name. Anything else is reported as an
// unsupported construct.
package lower
