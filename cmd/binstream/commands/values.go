package commands

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stewi1014/binstream"
	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
)

type stream = binstream.Stream[*buffer.Dynamic]

// kind is a value type the command line can pack and unpack.
type kind struct {
	put func(s *stream, text string) error
	get func(s *stream) (string, error)
}

var kinds = map[string]kind{
	"bool": scalar(strconv.ParseBool),
	"u8":   scalar(parseUint[uint8](8)),
	"u16":  scalar(parseUint[uint16](16)),
	"u32":  scalar(parseUint[uint32](32)),
	"u64":  scalar(parseUint[uint64](64)),
	"i8":   scalar(parseInt[int8](8)),
	"i16":  scalar(parseInt[int16](16)),
	"i32":  scalar(parseInt[int32](32)),
	"i64":  scalar(parseInt[int64](64)),
	"f32":  scalar(parseFloat[float32](32)),
	"f64":  scalar(parseFloat[float64](64)),

	"uvarint": {
		put: func(s *stream, text string) error {
			v, err := strconv.ParseUint(text, 0, 64)
			if err != nil {
				return err
			}
			return s.PutUvarint(v)
		},
		get: func(s *stream) (string, error) {
			v, err := s.GetUvarint()
			return strconv.FormatUint(v, 10), err
		},
	},
	"varint": {
		put: func(s *stream, text string) error {
			v, err := strconv.ParseInt(text, 0, 64)
			if err != nil {
				return err
			}
			return s.PutVarint(v)
		},
		get: func(s *stream) (string, error) {
			v, err := s.GetVarint()
			return strconv.FormatInt(v, 10), err
		},
	},

	// str uses the configured string framing.
	"str": {
		put: func(s *stream, text string) error { return s.Put(text) },
		get: func(s *stream) (string, error) {
			var v string
			err := s.Get(&v)
			return strconv.Quote(v), err
		},
	},
	"cstr": {
		put: func(s *stream, text string) error { return s.PutCString(text) },
		get: func(s *stream) (string, error) {
			v, err := s.GetCString()
			return strconv.Quote(v), err
		},
	},

	// bytes are given in hex and use the configured slice framing.
	"bytes": {
		put: func(s *stream, text string) error {
			p, err := hex.DecodeString(text)
			if err != nil {
				return err
			}
			return s.Put(p)
		},
		get: func(s *stream) (string, error) {
			var p []byte
			err := s.Get(&p)
			return hex.EncodeToString(p), err
		},
	},
}

func scalar[T encio.Scalar](parse func(string) (T, error)) kind {
	return kind{
		put: func(s *stream, text string) error {
			v, err := parse(text)
			if err != nil {
				return err
			}
			return binstream.Put(s, v)
		},
		get: func(s *stream) (string, error) {
			v, err := binstream.Get[T](s)
			return fmt.Sprint(v), err
		},
	}
}

func parseUint[T uint8 | uint16 | uint32 | uint64](bits int) func(string) (T, error) {
	return func(text string) (T, error) {
		v, err := strconv.ParseUint(text, 0, bits)
		return T(v), err
	}
}

func parseInt[T int8 | int16 | int32 | int64](bits int) func(string) (T, error) {
	return func(text string) (T, error) {
		v, err := strconv.ParseInt(text, 0, bits)
		return T(v), err
	}
}

func parseFloat[T float32 | float64](bits int) func(string) (T, error) {
	return func(text string) (T, error) {
		v, err := strconv.ParseFloat(text, bits)
		return T(v), err
	}
}

// lookupKind returns the kind called name.
func lookupKind(name string) (kind, error) {
	k, ok := kinds[strings.ToLower(name)]
	if !ok {
		return kind{}, fmt.Errorf("unknown type %q; known types are %v", name, kindNames())
	}
	return k, nil
}

func kindNames() string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// streamErr returns the fault recorded on s, for streams whose calls returned nil under the Tolerant policy.
func streamErr(s *stream) error {
	if s.Good() {
		return nil
	}
	return fmt.Errorf("stream %v: %w", s.State(), s.Err())
}
