package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stewi1014/binstream/chunk"
)

var (
	inspectInput string
	inspectDump  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show how input lays out in buffer blocks",
	Long: `Read the input into a dynamic buffer and report its size, the unread bytes
of each block and the allocator's block counts.

Examples:
  binstream inspect -f in.bin
  binstream -c settings.toml inspect --dump < in.bin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := readInput(cmd, inspectInput)
		if err != nil {
			return err
		}
		d := s.Buffer()
		defer d.Reset()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bytes:      %v\n", d.Len())
		fmt.Fprintf(out, "block size: %v\n", d.Allocator().BlockSize())
		fmt.Fprintf(out, "blocks:     %v\n", d.Blocks())
		fmt.Fprintf(out, "layout:     %v\n", d.Layout())
		if st, ok := d.Allocator().(interface{ Stats() chunk.Stats }); ok {
			stats := st.Stats()
			fmt.Fprintf(out, "allocator:  %v blocks, %v in use, %v free\n", stats.Blocks, stats.InUse(), stats.Free)
		}

		if inspectDump && !d.Empty() {
			data := make([]byte, d.Len())
			d.Copy(data)
			fmt.Fprint(out, hex.Dump(data))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectInput, "file", "f", "", "input file (default stdin)")
	inspectCmd.Flags().BoolVar(&inspectDump, "dump", false, "print a hex dump of the input")
	rootCmd.AddCommand(inspectCmd)
}
