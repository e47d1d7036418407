package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/autodiag/candiag"
)

func init() {
	rootCmd.AddCommand(adaptersCmd)
}

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "list registered adapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := candiag.ListAdapters()
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
		for i := range infos {
			fmt.Println(infos[i].String())
		}
		return nil
	},
}
