package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/autodiag/candiag/pkg/bitfield"
	"github.com/autodiag/candiag/pkg/candb"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog <ref-file>",
	Short: "browse the messages and signals of a signal catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := candb.LoadREFFile(args[0])
		if err != nil {
			return err
		}
		messages := catalog.Messages()
		if len(messages) == 0 {
			return fmt.Errorf("catalog %s holds no messages", args[0])
		}

		items := make([]string, len(messages))
		for i, msg := range messages {
			items[i] = fmt.Sprintf("0x%03X %s (%d signals)", msg.ID, msg.Name, len(msg.Signals))
		}
		prompt := promptui.Select{
			Label: fmt.Sprintf("%s, %d messages", catalog.Vehicle, len(messages)),
			Items: items,
			Size:  15,
		}
		idx, _, err := prompt.Run()
		if err != nil {
			return err
		}

		msg := messages[idx]
		fmt.Printf("0x%03X %s DLC %d\n", msg.ID, msg.Name, msg.DLC)
		for _, sig := range msg.Signals {
			fmt.Printf("  %-24s start %2d len %2d %-8s scale %g offset %g %s\n",
				sig.Name, sig.Field.Start, sig.Field.Length, orderName(sig.Field.Order), sig.Scale, sig.Offset, sig.Unit)
		}
		return nil
	},
}

func orderName(o bitfield.ByteOrder) string {
	if o == bitfield.LittleEndian {
		return "intel"
	}
	return "motorola"
}
