package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/autodiag/candiag"
	"github.com/autodiag/candiag/internal/logger"
)

const (
	flagTXID = "txid"
	flagRXID = "rxid"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String(flagTXID, envOr("CANDIAG_TXID", "7E0"), "request CAN id (hex)")
	pf.String(flagRXID, envOr("CANDIAG_RXID", "7E8"), "response CAN id (hex)")
}

func initClient(cmd *cobra.Command) (*candiag.Client, error) {
	adapterName, _ := cmd.Flags().GetString(flagAdapter)
	debug, _ := cmd.Flags().GetBool(flagDebug)
	c, err := candiag.New(cmd.Context(), adapterName, &candiag.AdapterConfig{
		Debug:     debug,
		OnMessage: func(msg string) { logger.Info(msg) },
		OnError:   func(err error) { logger.Error(err.Error()) },
	})
	if err != nil {
		return nil, err
	}
	go pumpEvents(c.Adapter())
	return c, nil
}

func pumpEvents(adapter candiag.Adapter) {
	for evt := range adapter.Event() {
		switch evt.Type {
		case candiag.EventTypeError:
			logger.Error(evt.Details, zap.String("adapter", adapter.Name()))
		case candiag.EventTypeWarning:
			logger.Warn(evt.Details, zap.String("adapter", adapter.Name()))
		case candiag.EventTypeDebug:
			logger.Debug(evt.Details, zap.String("adapter", adapter.Name()))
		default:
			logger.Info(evt.Details, zap.String("adapter", adapter.Name()))
		}
	}
}

func diagIDs(cmd *cobra.Command) (uint32, uint32, error) {
	tx, _ := cmd.Flags().GetString(flagTXID)
	rx, _ := cmd.Flags().GetString(flagRXID)
	txid, err := strconv.ParseUint(tx, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid txid %q: %w", tx, err)
	}
	rxid, err := strconv.ParseUint(rx, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rxid %q: %w", rx, err)
	}
	return uint32(txid), uint32(rxid), nil
}
