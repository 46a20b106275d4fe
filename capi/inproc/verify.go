package inproc

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/wippyai/irbind/errors"
)

// verify checks the structural rules the builder cannot enforce one call at a time.
func verify(m *ir.Module) []errors.Problem {
	var problems []errors.Problem
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		for i, b := range f.Blocks {
			name := b.LocalName
			if name == "" {
				name = fmt.Sprintf("block %d", i)
			}
			if b.Term == nil {
				problems = append(problems, errors.Problem{
					Function: f.Name(),
					Block:    name,
					Detail:   "block does not end in a terminator",
				})
				continue
			}
			if ret, ok := b.Term.(*ir.TermRet); ok {
				got := types.Type(types.Void)
				if ret.X != nil {
					got = ret.X.Type()
				}
				if !types.Equal(got, f.Sig.RetType) {
					problems = append(problems, errors.Problem{
						Function: f.Name(),
						Block:    name,
						Detail:   fmt.Sprintf("returns %s from a function returning %s", got, f.Sig.RetType),
					})
				}
			}
		}
	}
	return problems
}
