package binstream

import "strconv"

// State is the error state of a stream.
//
// Every state other than StateOK is sticky: once a stream leaves StateOK,
// reads and writes do nothing until ClearErrorState is called.
// StateInvalid cannot be cleared.
type State uint8

const (
	// StateOK is the state of a healthy stream.
	StateOK State = iota

	// StateBufferUnderrun is entered when a read asks for more bytes than the buffer holds.
	StateBufferUnderrun

	// StateReadLimitExceeded is entered when a read would take the stream past its read limit.
	StateReadLimitExceeded

	// StateWriteError is entered when the buffer does not accept all of a write.
	StateWriteError

	// StateMalformed is entered when data cannot be encoded or decoded;
	// an overlong varint, an oversized length prefix or a terminator inside a null-terminated value.
	StateMalformed

	// StateUserDefinedError is entered through SetErrorState.
	StateUserDefinedError

	// StateInvalid is the state of a stream that has been moved from. It is terminal.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateBufferUnderrun:
		return "buffer underrun"
	case StateReadLimitExceeded:
		return "read limit exceeded"
	case StateWriteError:
		return "write error"
	case StateMalformed:
		return "malformed"
	case StateUserDefinedError:
		return "user defined error"
	case StateInvalid:
		return "invalid"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Policy selects how a stream reports faults.
// Both policies drive the same state machine; only the returned errors differ.
type Policy uint8

const (
	// Strict returns the fault's error from the failing call, and again from every later call until the state is cleared.
	Strict Policy = iota

	// Tolerant returns nil from failing calls and only records the state,
	// so a batch of operations can be checked once with Good or Err.
	Tolerant
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Tolerant:
		return "tolerant"
	default:
		return "Policy(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePolicy parses the String form of a Policy.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "strict", "":
		return Strict, true
	case "tolerant":
		return Tolerant, true
	}
	return Strict, false
}
