package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/autodiag/candiag/cmd/candiag/cmd"
	"github.com/autodiag/candiag/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, os.Interrupt)
	go func() {
		s := <-quitChan
		logger.Info("exiting", zap.Stringer("signal", s))
		cancel()
		// Failsafe if there are deadlocks
		<-time.After(15 * time.Second)
		logger.Error("took too long to shutdown, forcefully exiting")
		os.Exit(1)
	}()
	cmd.Execute(ctx)
}
