package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/autodiag/candiag/pkg/candb"
)

func init() {
	rootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode <ref-file> <id> <hexbytes>",
	Short: "decode a single frame against a signal catalog",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := candb.LoadREFFile(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseUint(args[1], 16, 32)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[1], err)
		}
		data, err := parseHex(args[2])
		if err != nil {
			return err
		}

		values, ok := catalog.DecodeFrame(uint32(id), data)
		if !ok {
			return fmt.Errorf("no message 0x%03X in catalog", id)
		}
		for _, v := range values {
			fmt.Println(v.String())
		}
		return nil
	},
}
