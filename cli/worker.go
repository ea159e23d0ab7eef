package cli

import (
	"context"
	"os/signal"
	"syscall"

	"ragdesk/cron"
	"ragdesk/utils"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process queued booking confirmations and reminders",
		Run:   runWorker,
	}

	RootCmd.AddCommand(cmd)
}

func runWorker(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cron.RunConfirmationWorker(ctx, utils.GetLogger()); err != nil {
		exitErr("worker", err)
	}
}
