package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		log.Fatalf("notifyd: %v", err)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "notifyd",
		Short:         "Match and comment notification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCommand(),
		workerCommand(),
		remindCommand(),
	)
	return root
}
