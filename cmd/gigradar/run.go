package main

import (
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one recommend pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, cmdCtx, model.RunRecommend)
		},
	}
}

func newCleanCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete duplicate scheduled entries and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, cmdCtx, model.RunCleanup)
		},
	}
}

// runOnce executes a single run and prints its report as JSON.
func runOnce(cmd *cobra.Command, cmdCtx *commandContext, kind model.RunKind) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildService(cfg, logger.Get())
	if err != nil {
		return err
	}
	report, runErr := svc.RunOnce(ctx, kind)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	return runErr
}
