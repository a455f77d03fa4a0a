package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stewi1014/binstream/encio"
)

var packOutput string

var packCmd = &cobra.Command{
	Use:   "pack type:value...",
	Short: "Encode typed values to binary",
	Long: `Encode each type:value argument in order and write the result.

Examples:
  binstream pack u16:0x0102 i8:-1 f64:1.5
  binstream pack --order big str:hello bytes:deadbeef -o out.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStream()
		defer s.Buffer().Reset()

		for _, arg := range args {
			name, text, ok := strings.Cut(arg, ":")
			if !ok {
				return fmt.Errorf("argument %q is not type:value", arg)
			}
			k, err := lookupKind(name)
			if err != nil {
				return err
			}
			if err := k.put(s, text); err != nil {
				return fmt.Errorf("pack %q: %w", arg, err)
			}
		}
		if err := streamErr(s); err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if packOutput != "" && packOutput != "-" {
			f, err := os.Create(packOutput)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer f.Close()
			w = f
		}

		n, err := s.Buffer().WriteTo(w)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		encio.Log.Debug("packed", zap.Int("values", len(args)), zap.Int64("bytes", n))
		return nil
	},
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(packCmd)
}
