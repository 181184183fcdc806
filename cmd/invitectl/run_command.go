package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/app"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/service"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/staging"
	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var flags jobFlags
	var stagingDir string
	var scheme string
	var timeout time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Reconcile a list in-process, without a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := filepath.Base(args[0])
			cfg, err := flags.config(name)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open list: %w", err)
			}
			defer f.Close()

			stager, err := staging.New(stagingDir, 0)
			if err != nil {
				return err
			}
			list, err := stager.Stage(name, f)
			if errors.Is(err, staging.ErrBusy) {
				return fmt.Errorf("another job is using %s; try again once it finishes", stagingDir)
			}
			if err != nil {
				return err
			}
			defer list.Close()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(progress.NewHandler(cmd.OutOrStdout(), level))

			logger.Info("received " + name)
			logger.Info(fmt.Sprintf("processing %d lines", list.Lines()))
			logger.Info("starting list processing")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng := &service.Engine{
				NewDirectory: service.DirectoryFactory(scheme, timeout),
				Logger:       logger,
			}
			res := eng.Run(ctx, cfg, list)

			summary := invitersdk.JobStatus{
				Processed: res.Counters.Processed,
				Invited:   res.Counters.Invited,
				Skipped:   res.Counters.Skipped,
				Deleted:   res.Counters.Deleted,
				Failures:  res.Counters.Failures,
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Run %s: %s\n", res.State, countersLine(summary))

			switch res.State {
			case domain.JobStateFailed:
				return res.Err
			case domain.JobStateCancelled:
				return context.Canceled
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&stagingDir, "staging-dir", envOr("INVITER_STAGING_DIR", app.DefaultStagingDir()), "Staging directory shared with the server")
	cmd.Flags().StringVar(&scheme, "scheme", envOr("DIRECTORY_SCHEME", "https"), "Directory URL scheme")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-call directory timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include debug lines")
	return cmd
}
