package encio

import "go.uber.org/zap"

// Log is where the binstream packages send diagnostics.
// Pools log growth and exhaustion, streams log faults at debug level, and
// misbehaving io.Writers are reported as warnings.
//
// It discards everything by default. Set it before use; it is not guarded.
var Log = zap.NewNop()

// SetLogger replaces Log. A nil logger restores the no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	Log = l
}
