package binstream

import (
	"go.uber.org/zap"

	"github.com/stewi1014/binstream/encio"
)

// Option configures a Stream.
type Option func(*options)

type options struct {
	readLimit     uint64
	policy        Policy
	order         encio.ByteOrder
	stringFraming Framing
	sliceFraming  Framing
	onFault       func(error)
	log           *zap.Logger
}

func defaultOptions() options {
	return options{
		policy:        Strict,
		order:         encio.Native,
		stringFraming: NullTerminated,
		sliceFraming:  VarintPrefix,
	}
}

// WithReadLimit caps the total number of bytes the stream may read over its lifetime.
// Zero means no limit.
func WithReadLimit(n uint64) Option {
	return func(o *options) { o.readLimit = n }
}

// WithPolicy selects how faults are reported. The default is Strict.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithByteOrder sets the byte order of scalars written and read without an explicit order.
// The default is encio.Native, which is only portable between hosts of the same byte order.
func WithByteOrder(order encio.ByteOrder) Option {
	return func(o *options) { o.order = order }
}

// WithStringFraming sets how Put and Get frame strings. The default is NullTerminated.
func WithStringFraming(f Framing) Option {
	return func(o *options) { o.stringFraming = f }
}

// WithSliceFraming sets how Put and Get frame slices. The default is VarintPrefix.
func WithSliceFraming(f Framing) Option {
	return func(o *options) { o.sliceFraming = f }
}

// WithFaultHandler registers fn to be called with the error of every fault as it happens, under either policy.
// Bounds faults are *encio.BoundsError values carrying the requested, consumed and available or limit byte counts.
func WithFaultHandler(fn func(error)) Option {
	return func(o *options) { o.onFault = fn }
}

// WithLogger sets the logger faults are reported to at debug level. The default is encio.Log.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}
