package encio

import (
	"errors"
	"fmt"
	"runtime"
)

// Error handling in binstream is designed so callers can tell a bad buffer from bad data and from misuse,
// reusing a small set of common error kinds wrapped with whatever context applies.
// Panics are only used when there is a clear misuse of the library; programmer error.
//
// Errors can be checked with
//
//	var bounds *BoundsError
//	if errors.As(err, &bounds) {
//		// bounds.Requested, bounds.Consumed, bounds.Available
//	}
//	if errors.Is(err, ErrBufferUnderrun) {
//		// wait for more data
//	}
var (
	// ErrBufferUnderrun is returned when a read asks for more bytes than the buffer holds.
	ErrBufferUnderrun = errors.New("buffer underrun")

	// ErrReadLimit is returned when a read would take a stream past its read limit.
	ErrReadLimit = errors.New("read limit exceeded")

	// ErrWriteFailure is returned when the buffer rejects a write.
	// The buffer's own error is wrapped alongside it.
	ErrWriteFailure = errors.New("write failure")

	// ErrInvalidStream is returned when a stream is used after it has been moved from.
	ErrInvalidStream = errors.New("invalid stream")

	// ErrUserDefined is the error a stream reports after the caller has set its error state.
	ErrUserDefined = errors.New("user defined error")

	// ErrMalformed is returned when the read data is impossible to decode.
	ErrMalformed = errors.New("malformed")

	// ErrExhausted is returned when a bounded allocator has no blocks left to give.
	ErrExhausted = errors.New("allocator exhausted")

	// ErrSeekRange is returned when a write seek would leave the written region of a buffer.
	ErrSeekRange = errors.New("seek out of range")

	// ErrUnsupportedType is returned when a value of a type that has no binary form is given to a stream;
	// maps, channels, functions and the like.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCapability is returned when an operation needs a buffer capability the buffer does not have.
	ErrCapability = errors.New("unsupported buffer capability")
)

// BoundsError describes a rejected read.
// Err is ErrBufferUnderrun or ErrReadLimit.
// Available holds the buffered byte count for an underrun, and the stream's read limit when the limit was hit.
type BoundsError struct {
	Err       error
	Requested int
	Consumed  int
	Available int
}

// Error implements error
func (e *BoundsError) Error() string {
	if errors.Is(e.Err, ErrReadLimit) {
		return fmt.Sprintf("%v: read of %v bytes with %v of %v already read",
			e.Err, e.Requested, e.Consumed, e.Available)
	}
	return fmt.Sprintf("%v: read of %v bytes with %v available (%v already read)",
		e.Err, e.Requested, e.Available, e.Consumed)
}

// Unwrap implements errors's Unwrap()
func (e *BoundsError) Unwrap() error {
	return e.Err
}

// NewIOError returns an IOError wrapping err with the given message.
// err is typically the error returned from the buffer or io.Writer, describing why it could not take the data.
// message has extra information about the error; if empty, it is filled with the calling function's name.
func NewIOError(err error, message string) error {
	if err == nil {
		return NewError(errors.New("unknown error"), "trying to create new IOError", 1)
	}
	if message == "" {
		message = "in " + GetCaller(1)
	}

	return &IOError{
		Err:     err,
		Message: message,
	}
}

// IOError is returned when a buffer or writer fails to accept data.
// It matches ErrWriteFailure as well as the wrapped cause.
type IOError struct {
	Err     error
	Message string
}

// Error implements error
func (e *IOError) Error() string {
	if e.Message != "" {
		return ErrWriteFailure.Error() + ": " + e.Message + ": " + e.Err.Error()
	}
	return ErrWriteFailure.Error() + ": " + e.Err.Error()
}

// Unwrap implements errors's Unwrap()
func (e *IOError) Unwrap() []error {
	return []error{ErrWriteFailure, e.Err}
}

// NewError returns an Error wrapping err with message and the name of the calling function,
// skipping skip functions.
func NewError(err error, message string, skip int) error {
	return &Error{
		Err:     err,
		Message: message,
		Caller:  GetCaller(skip + 1),
	}
}

// Error is returned when an operation is refused; misuse of a stream or data that cannot be decoded.
type Error struct {
	Err     error
	Message string
	Caller  string
}

// Error implements error
func (e *Error) Error() (str string) {
	if e.Caller != "" {
		str = e.Caller + ": "
	}

	str += e.Err.Error()

	if e.Message != "" {
		str += " (" + e.Message + ")"
	}

	return str
}

// Unwrap implements errors's Unwrap()
func (e *Error) Unwrap() error {
	return e.Err
}

// GetCaller returns the name of the calling function, skipping skip functions.
// i.e. 0 writes the calling function, 1 the function calling that etc...
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "Unknown Function"
	}

	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
