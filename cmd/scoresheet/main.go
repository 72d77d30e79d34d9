package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/park285/cheese-scoresheet/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scoresheet",
		Short:         "Read, validate and merge handwritten chess scoresheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("owner", os.Getenv("SCORESHEET_OWNER"), "owner identity used to scope stored games")
	cmd.AddCommand(newReviewCommand())
	cmd.AddCommand(newNormalizeCommand())
	cmd.AddCommand(newProcessCommand())
	cmd.AddCommand(newContinueCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newPendingCommand())
	return cmd
}
