// Package config loads the settings the binstream command builds its buffers and streams from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/stewi1014/binstream"
	"github.com/stewi1014/binstream/chunk"
	"github.com/stewi1014/binstream/encio"
)

// Config is the file form of the command's settings. Zero fields take the values from Default.
type Config struct {
	Buffer BufferConfig `toml:"buffer" yaml:"buffer"`
	Stream StreamConfig `toml:"stream" yaml:"stream"`
}

// BufferConfig configures the block allocator behind dynamic buffers.
type BufferConfig struct {
	BlockSize int  `toml:"block_size" yaml:"block_size"`
	MaxBlocks int  `toml:"max_blocks" yaml:"max_blocks"`
	Shared    bool `toml:"shared" yaml:"shared"`
}

// StreamConfig configures streams. String fields hold the String forms of the binstream and encio values.
type StreamConfig struct {
	ReadLimit     uint64 `toml:"read_limit" yaml:"read_limit"`
	Policy        string `toml:"policy" yaml:"policy"`
	ByteOrder     string `toml:"byte_order" yaml:"byte_order"`
	StringFraming string `toml:"string_framing" yaml:"string_framing"`
	SliceFraming  string `toml:"slice_framing" yaml:"slice_framing"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Buffer: BufferConfig{
			BlockSize: chunk.DefaultBlockSize,
		},
		Stream: StreamConfig{
			Policy:        binstream.Strict.String(),
			ByteOrder:     encio.LittleEndian.String(),
			StringFraming: binstream.NullTerminated.String(),
			SliceFraming:  binstream.VarintPrefix.String(),
		},
	}
}

// Load reads the file at path over Default and validates the result.
// Files ending in .toml are read as TOML, and .yaml or .yml as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config load failed (%s): unknown format %q", path, ext)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	encio.Log.Debug("config loaded", zap.String("path", path), zap.Any("config", cfg))
	return cfg, nil
}

func (c *Config) normalize() {
	c.Stream.Policy = strings.ToLower(strings.TrimSpace(c.Stream.Policy))
	c.Stream.ByteOrder = strings.ToLower(strings.TrimSpace(c.Stream.ByteOrder))
	c.Stream.StringFraming = strings.ToLower(strings.TrimSpace(c.Stream.StringFraming))
	c.Stream.SliceFraming = strings.ToLower(strings.TrimSpace(c.Stream.SliceFraming))
}

// Validate reports every invalid setting in c.
func (c Config) Validate() error {
	var err error
	if c.Buffer.BlockSize < 0 {
		err = multierr.Append(err, fmt.Errorf("buffer.block_size must not be negative, got %d", c.Buffer.BlockSize))
	}
	if c.Buffer.MaxBlocks < 0 {
		err = multierr.Append(err, fmt.Errorf("buffer.max_blocks must not be negative, got %d", c.Buffer.MaxBlocks))
	}
	if _, ok := binstream.ParsePolicy(c.Stream.Policy); !ok {
		err = multierr.Append(err, fmt.Errorf("stream.policy %q is not strict or tolerant", c.Stream.Policy))
	}
	if _, ok := encio.ParseByteOrder(c.Stream.ByteOrder); !ok {
		err = multierr.Append(err, fmt.Errorf("stream.byte_order %q is not native, little or big", c.Stream.ByteOrder))
	}
	if _, ok := binstream.ParseFraming(c.Stream.StringFraming); !ok {
		err = multierr.Append(err, fmt.Errorf("stream.string_framing %q is not a framing", c.Stream.StringFraming))
	}
	if _, ok := binstream.ParseFraming(c.Stream.SliceFraming); !ok {
		err = multierr.Append(err, fmt.Errorf("stream.slice_framing %q is not a framing", c.Stream.SliceFraming))
	}
	return err
}

// Options returns the stream options c describes. c must be valid.
func (c Config) Options() []binstream.Option {
	policy, _ := binstream.ParsePolicy(c.Stream.Policy)
	order, _ := encio.ParseByteOrder(c.Stream.ByteOrder)
	strFraming, _ := binstream.ParseFraming(c.Stream.StringFraming)
	sliceFraming, _ := binstream.ParseFraming(c.Stream.SliceFraming)

	return []binstream.Option{
		binstream.WithReadLimit(c.Stream.ReadLimit),
		binstream.WithPolicy(policy),
		binstream.WithByteOrder(order),
		binstream.WithStringFraming(strFraming),
		binstream.WithSliceFraming(sliceFraming),
	}
}

// Allocator returns a new block allocator for c; a chunk.Shared if Buffer.Shared is set, otherwise a chunk.Pool.
func (c Config) Allocator(log *zap.Logger) chunk.Allocator {
	cfg := chunk.Config{
		BlockSize: c.Buffer.BlockSize,
		MaxBlocks: c.Buffer.MaxBlocks,
		Logger:    log,
	}
	if c.Buffer.Shared {
		return chunk.NewShared(cfg)
	}
	return chunk.NewPool(cfg)
}
