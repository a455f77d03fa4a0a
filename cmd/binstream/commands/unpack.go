package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	unpackInput  string
	unpackStrict bool
)

var unpackCmd = &cobra.Command{
	Use:   "unpack type...",
	Short: "Decode binary as a list of typed values",
	Long: `Decode the input as the given types in order, printing one type and value per line.

Examples:
  binstream unpack u16 i8 f64 -f in.bin
  binstream pack u32:7 | binstream unpack u32`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoders := make([]kind, len(args))
		for i, name := range args {
			k, err := lookupKind(name)
			if err != nil {
				return err
			}
			decoders[i] = k
		}

		s, err := readInput(cmd, unpackInput)
		if err != nil {
			return err
		}
		defer s.Buffer().Reset()

		out := cmd.OutOrStdout()
		for i, k := range decoders {
			v, err := k.get(s)
			if err != nil {
				return fmt.Errorf("unpack %v at byte %v: %w", args[i], s.TotalRead(), err)
			}
			if !s.Good() {
				break
			}
			fmt.Fprintf(out, "%v\t%v\n", args[i], v)
		}
		if err := streamErr(s); err != nil {
			return err
		}

		if n := s.Len(); n > 0 {
			if unpackStrict {
				return fmt.Errorf("%v trailing bytes", n)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%v trailing bytes\n", n)
		}
		return nil
	},
}

func init() {
	unpackCmd.Flags().StringVarP(&unpackInput, "file", "f", "", "input file (default stdin)")
	unpackCmd.Flags().BoolVar(&unpackStrict, "exact", false, "fail if input remains after the last value")
	rootCmd.AddCommand(unpackCmd)
}
