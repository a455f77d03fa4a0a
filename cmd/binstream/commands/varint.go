package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
)

var varintSigned bool

var varintCmd = &cobra.Command{
	Use:   "varint",
	Short: "Encode and decode varints",
}

var varintEncodeCmd = &cobra.Command{
	Use:   "encode [--signed] [--] number...",
	Short: "Print the hex encoding of each number",
	Long: `Print the hex encoding of each number.

Negative numbers look like flags, so put them after --:
  binstream varint encode --signed -- -3 7`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var buff encio.Uvarint
		for _, arg := range args {
			var u uint64
			if varintSigned {
				v, err := strconv.ParseInt(arg, 0, 64)
				if err != nil {
					return err
				}
				u = encio.ZigZag(v)
			} else {
				v, err := strconv.ParseUint(arg, 0, 64)
				if err != nil {
					return err
				}
				u = v
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", arg, hex.EncodeToString(buff.Encode(u)))
		}
		return nil
	},
}

var varintDecodeCmd = &cobra.Command{
	Use:   "decode hex...",
	Short: "Print the number each hex varint encodes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var buff encio.Uvarint
		for _, arg := range args {
			p, err := hex.DecodeString(arg)
			if err != nil {
				return err
			}

			b := buffer.NewBytes(p)
			u, err := buff.Decode(b)
			switch {
			case errors.Is(err, io.EOF):
				return fmt.Errorf("%v: %w: varint is incomplete", arg, encio.ErrBufferUnderrun)
			case err != nil:
				return fmt.Errorf("%v: %w", arg, err)
			case !b.Empty():
				return fmt.Errorf("%v: %v bytes after the varint", arg, b.Len())
			}

			if varintSigned {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", arg, encio.UnZigZag(u))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", arg, u)
			}
		}
		return nil
	},
}

func init() {
	varintCmd.PersistentFlags().BoolVarP(&varintSigned, "signed", "s", false, "zigzag encode signed numbers")
	varintCmd.AddCommand(varintEncodeCmd, varintDecodeCmd)
	rootCmd.AddCommand(varintCmd)
}
