// Command focusctl is the operator tool for the focus timer service.
//
// Usage:
//
//	focusctl migrate [status]
//	focusctl timers list
//	focusctl timers recover
//	focusctl token --user=<uuid>
//
// Configuration is read the same way as the server (CONFIG_PATH or ENV).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "focusctl",
		Short:         "Operate the focus timer service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newTimersCmd(), newTokenCmd())
	return root
}
