package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/autodiag/candiag/pkg/dtc"
	"github.com/autodiag/candiag/pkg/kwp2000"
	"github.com/autodiag/candiag/pkg/uds"
)

func init() {
	dtcCmd.Flags().Bool("kwp", false, "use KWP2000 (older VAG ECUs)")
	dtcCmd.AddCommand(dtcParseCmd, dtcClearCmd)
	rootCmd.AddCommand(dtcCmd)
}

var dtcCmd = &cobra.Command{
	Use:   "dtc",
	Short: "scan the ECU for stored trouble codes",
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

		if kwp, _ := cmd.Flags().GetBool("kwp"); kwp {
			cl := kwp2000.New(c, txid, rxid)
			if err := cl.StartSession(ctx); err != nil {
				return err
			}
			codes, err := cl.ReadDTCs(ctx)
			if err != nil {
				return err
			}
			printKWPDTCs(codes)
			return nil
		}

		cl := uds.New(c, txid, rxid)
		records, err := cl.ReadDTCs(ctx, 0xFF)
		if err != nil {
			return err
		}
		printDTCs(records)
		return nil
	},
}

var dtcParseCmd = &cobra.Command{
	Use:   "parse <hexbytes>",
	Short: "decode a raw 59/57 DTC response without talking to an ECU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := parseHex(args[0])
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return fmt.Errorf("empty response")
		}
		switch raw[0] {
		case 0x57:
			codes, err := kwp2000.ParseDTCResponse(raw)
			if err != nil {
				return err
			}
			printKWPDTCs(codes)
		default:
			records, err := dtc.DecodeResponse(raw, raw[0])
			if err != nil {
				return err
			}
			printDTCs(records)
		}
		return nil
	},
}

var dtcClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "erase all stored trouble codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		prompt := promptui.Prompt{
			Label:     "Erase all stored trouble codes",
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			return fmt.Errorf("aborted")
		}

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
		if err := cl.ClearDTCs(ctx); err != nil {
			return err
		}
		fmt.Println("trouble codes cleared")
		return nil
	},
}

func printDTCs(records []dtc.Record) {
	if len(records) == 0 {
		fmt.Println("no stored trouble codes")
		return
	}
	for _, r := range records {
		fmt.Println(r.String())
	}
}

func printKWPDTCs(codes []kwp2000.StoredDTC) {
	if len(codes) == 0 {
		fmt.Println("no stored trouble codes")
		return
	}
	for _, c := range codes {
		fmt.Println(c.String())
	}
}

func parseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ",", "", "0x", "").Replace(strings.ToLower(s))
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return raw, nil
}
