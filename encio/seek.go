package encio

// Whence selects how a write seek offset is applied.
type Whence uint8

const (
	// SeekAbsolute moves the write cursor to the given offset.
	SeekAbsolute Whence = iota
	// SeekForward moves the write cursor towards the end of the written data.
	SeekForward
	// SeekBackward moves the write cursor back over written data.
	SeekBackward
	// SeekStreamAbsolute moves a stream's write cursor to an offset counted from the first byte the stream wrote.
	// Streams translate it into a relative seek; buffers reject it.
	SeekStreamAbsolute
)

func (w Whence) String() string {
	switch w {
	case SeekAbsolute:
		return "absolute"
	case SeekForward:
		return "forward"
	case SeekBackward:
		return "backward"
	case SeekStreamAbsolute:
		return "stream absolute"
	}
	return "unknown"
}
