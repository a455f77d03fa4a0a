package binstream

import (
	"fmt"

	"github.com/stewi1014/binstream/encio"
)

// WriteSeek moves the buffer's write cursor so earlier output can be patched.
//
// SeekAbsolute offsets count from the first unread byte of the buffer, and SeekForward and SeekBackward from the
// current cursor; these are passed to the buffer as they are. SeekStreamAbsolute offsets count from the first byte
// this stream wrote, and are translated into a relative seek. Writes at a rewound cursor overwrite in place.
//
// The buffer must be seekable. Seeking outside the written region is refused by the buffer with encio.ErrSeekRange,
// returned without changing the stream's state.
//
//	pos := s.TotalWrite()
//	binstream.PutOrder(s, uint32(0), encio.LittleEndian)
//	n := writeBody(s)
//	s.WriteSeek(encio.SeekStreamAbsolute, int(pos))
//	binstream.PutOrder(s, uint32(n), encio.LittleEndian)
//	s.WriteSeek(encio.SeekStreamAbsolute, int(s.TotalWrite()))
func (s *Stream[B]) WriteSeek(whence encio.Whence, offset int) error {
	if s.state != StateOK {
		return s.failure()
	}
	if s.seek == nil {
		return encio.NewError(encio.ErrCapability, "buffer is not seekable", 1)
	}

	// The buffer's cursor, relative to its first unread byte.
	cursor := int64(s.buf.Len()) - int64(s.totalWrite-s.wpos)

	var delta int64
	switch whence {
	case encio.SeekStreamAbsolute:
		delta = int64(offset) - int64(s.wpos)
		if delta < 0 {
			whence, offset = encio.SeekBackward, int(-delta)
		} else {
			whence, offset = encio.SeekForward, int(delta)
		}
	case encio.SeekForward:
		delta = int64(offset)
	case encio.SeekBackward:
		delta = -int64(offset)
	case encio.SeekAbsolute:
		delta = int64(offset) - cursor
	default:
		return encio.NewError(encio.ErrSeekRange, fmt.Sprintf("unknown whence %v", whence), 1)
	}

	if err := s.seek.WriteSeek(whence, offset); err != nil {
		return err
	}
	s.wpos = uint64(int64(s.wpos) + delta)
	return nil
}
