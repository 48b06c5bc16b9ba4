package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cubsoftware/cubvault/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		cmd.HandleError(err)
	}
}
