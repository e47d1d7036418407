package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/autodiag/candiag"
	"github.com/autodiag/candiag/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "candiag",
	Short:        "CAN bus diagnostics tool",
	Long:         "Decode CAN signal catalogs, scan and clear trouble codes and talk UDS/KWP2000 to an ECU.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool(flagDebug)
		return logger.Init(debug)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	defer logger.Sync()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

const (
	flagAdapter = "adapter"
	flagDebug   = "debug"
)

func init() {
	// .env is optional, flags win over it
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagAdapter, "a", envOr("CANDIAG_ADAPTER", "SimECU"), "adapter to use, one of: "+strings.Join(candiag.ListAdapterNames(), ", "))
	pf.BoolP(flagDebug, "d", false, "debug mode")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
