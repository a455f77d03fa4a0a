package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stewi1014/binstream"
	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
	"github.com/stewi1014/binstream/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	order      = orderValue{order: encio.LittleEndian}
	policy     = policyValue{policy: binstream.Strict}
	strFraming = framingValue{framing: binstream.NullTerminated}

	// Loaded by the root command before any subcommand runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "binstream",
	Short: "Encode, decode and inspect binary streams",
	Long: `binstream - read and write framed binary values.

Values are written as type:value pairs, for example

  binstream pack u32:7 str:hello uvarint:300 -o out.bin
  binstream unpack u32 str uvarint -f out.bin

Settings are read from a TOML or YAML file given with --config;
--order, --policy and --strings override the file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = encio.Log.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level in a human readable format")
	rootCmd.PersistentFlags().Var(&order, "order", "byte order of scalars: native, little or big")
	rootCmd.PersistentFlags().Var(&policy, "policy", "fault policy: strict or tolerant")
	rootCmd.PersistentFlags().Var(&strFraming, "strings", "framing of str values: null, fixed or varint")
}

func setup(cmd *cobra.Command, args []string) error {
	log, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	encio.SetLogger(log)

	cfg = config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("order") {
		cfg.Stream.ByteOrder = order.String()
	}
	if flags.Changed("policy") {
		cfg.Stream.Policy = policy.String()
	}
	if flags.Changed("strings") {
		cfg.Stream.StringFraming = strFraming.String()
	}
	return cfg.Validate()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zc.Build()
}

// newStream returns a stream over a new dynamic buffer, both configured by cfg.
func newStream() *binstream.Stream[*buffer.Dynamic] {
	d := buffer.NewDynamic(cfg.Allocator(encio.Log))
	return binstream.New(d, cfg.Options()...)
}

// openInput returns the file at path, or the command's input if path is empty or "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// readInput reads everything from path, as for openInput, into a new stream.
func readInput(cmd *cobra.Command, path string) (*binstream.Stream[*buffer.Dynamic], error) {
	r, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s := newStream()
	if _, err := s.Buffer().ReadFrom(r); err != nil {
		s.Buffer().Reset()
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return s, nil
}
