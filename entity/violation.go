package entity

import (
	"fmt"

	"go.uber.org/zap"
)

// Operation names reported in violations.
const (
	OpInsert  = "insert"
	OpExtract = "extract"
	OpRestore = "restore"
	OpDemand  = "demand"
	OpView    = "view"
	OpClose   = "close"
)

// Violation describes a broken store contract. Stores panic with a *Violation; it is
// never returned as an error.
type Violation struct {
	Store  string
	Op     string
	Detail string
	Index  int
}

func (v *Violation) Error() string {
	if v.Index < 0 {
		return fmt.Sprintf("entity: contract violation: %s on store %q: %s", v.Op, v.Store, v.Detail)
	}
	return fmt.Sprintf("entity: contract violation: %s #%d on store %q: %s", v.Op, v.Index, v.Store, v.Detail)
}

func violate(store, op string, index int, detail string, args ...any) {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	v := &Violation{Store: store, Op: op, Index: index, Detail: detail}
	Logger().Error("entity contract violation",
		zap.String("store", store),
		zap.String("op", op),
		zap.Int("index", index),
		zap.String("detail", detail),
	)
	panic(v)
}
