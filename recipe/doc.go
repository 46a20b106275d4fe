// Package recipe loads YAML descriptions of small modules and builds them through an
// ir.Module.
//
// A recipe names the module, its target and source file, and lists functions. A
// function without a body is a declaration; one with a body gets a single entry block
// built from a straight-line list of steps:
//
//	name: arith
//	target: wasm32-unknown-unknown
//	functions:
//	  - name: add
//	    params: [{name: a, type: i32}, {name: b, type: i32}]
//	    result: i32
//	    body:
//	      - {op: add, args: [a, b], name: sum}
//	      - {op: ret, args: [sum]}
//
// Steps refer to parameters and earlier steps by name. Supported ops are the binary
// opcodes (add, sub, mul, sdiv, udiv, srem, urem, and, or, xor, shl, lshr, ashr, fadd,
// fsub, fmul, fdiv), icmp with a pred, call with a callee, const with a type and value,
// and ret with zero or one argument.
package recipe
