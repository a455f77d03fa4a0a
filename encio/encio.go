// Package encio provides the low level codecs shared by the binstream packages;
// varints, byte order conversion and raw scalar views, as well as the error types and logger used throughout.
package encio

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

var (
	// TooBig is a byte count used for simple sanity checking of lengths decoded from a buffer,
	// before they are used to size allocations.
	// ErrMalformed is returned if a decoded length exceeds this.
	//
	// By default it is 32MB on 32bit machines, and 128MB on 64bit machines.
	// Feel free to change it.
	TooBig = int(1 << (25 + ((^uint(0) >> 32) & 2)))
)

// WriteFull writes all of buff to w, handling errors of io.Writer with as little overhead as possible.
// In an ideal write, only a single int equality check is performed. It returns any error from Write().
func WriteFull(buff []byte, w io.Writer) error {
	n, err := w.Write(buff)
	if n == len(buff) {
		return err
	}

	end := n
	for end < len(buff) && err == nil && n > 0 {
		Log.Warn("short write without error, retrying",
			zap.String("writer", fmt.Sprintf("%T", w)),
			zap.Int("given", len(buff)-(end-n)),
			zap.Int("written", n),
		)
		n, err = w.Write(buff[end:])
		end += n
	}

	if end != len(buff) {
		switch {
		case end > len(buff):
			return NewIOError(
				errors.New("bad io.Writer implementation"),
				fmt.Sprintf("Write() reported %v bytes written, but was only given %v bytes", end, len(buff)),
			)
		case err == nil:
			return NewIOError(
				io.ErrShortWrite,
				fmt.Sprintf("want %v bytes but only wrote %v bytes", len(buff), end),
			)
		default:
			return NewIOError(
				err,
				fmt.Sprintf("want %v bytes but wrote %v bytes", len(buff), end),
			)
		}
	}
	return nil
}
