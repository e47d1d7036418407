package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autodiag/candiag/pkg/uds"
)

func init() {
	rootCmd.AddCommand(vinCmd)
}

var vinCmd = &cobra.Command{
	Use:   "vin",
	Short: "read VIN, part number and serial from the ECU",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := initClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		txid, rxid, err := diagIDs(cmd)
		if err != nil {
			return err
		}

		cl := uds.New(c, txid, rxid)
		if err := cl.StartSession(ctx, uds.SessionExtended); err != nil {
			return err
		}
		vin, err := cl.ReadVIN(ctx)
		if err != nil {
			return err
		}
		fmt.Println("VIN:        ", vin)

		if pn, err := cl.ReadPartNumber(ctx); err == nil {
			fmt.Println("Part number:", pn)
		}
		if serial, err := cl.ReadSerialNumber(ctx); err == nil {
			fmt.Println("Serial:     ", serial)
		}
		return nil
	},
}
