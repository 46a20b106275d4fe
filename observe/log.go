package observe

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/entity"
)

var _ entity.Observer = (*LogObserver)(nil)

// LogObserver writes one log entry per lifecycle event.
type LogObserver struct {
	log   *zap.Logger
	level zapcore.Level
}

// NewLogObserver logs events to l at Debug level. A nil logger discards them.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogObserver{log: l, level: zapcore.DebugLevel}
}

// WithLevel returns a copy of o logging at lvl.
func (o *LogObserver) WithLevel(lvl zapcore.Level) *LogObserver {
	return &LogObserver{log: o.log, level: lvl}
}

func (o *LogObserver) OnEntityEvent(e entity.Event) {
	ce := o.log.Check(o.level, "entity "+e.Type.String())
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("store", e.Store),
		zap.Int("index", e.Index),
	}
	if r, ok := e.Ref.(interface{ Ptr() capi.Pointer }); ok {
		fields = append(fields, zap.Stringer("ref", r.Ptr()))
	}
	ce.Write(fields...)
}
