package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var flags jobFlags
	var follow bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Upload a list to the server and start a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := flags.credentials()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open list: %w", err)
			}
			defer f.Close()

			client := ctx.client()
			status, err := client.SubmitJob(cmd.Context(), invitersdk.SubmitRequest{
				Username:   username,
				Password:   password,
				APIHost:    flags.apiHost,
				APIVersion: flags.apiVersion,
				RoleID:     flags.roleID,
				DryRun:     flags.dryRun,
				DelayMS:    int(flags.delay.Milliseconds()),
				FileName:   filepath.Base(args[0]),
				File:       f,
			})
			if err != nil {
				if invitersdk.IsCode(err, invitersdk.CodeJobRunning) {
					return fmt.Errorf("another job is running; try again once it finishes")
				}
				return err
			}

			if !follow {
				if ctx.json() {
					return writeJSON(cmd, status)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s (%s)\n", status.ID, status.SourceName)
				return nil
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Submitted job %s, following progress\n", status.ID)
			return followAndReport(cmd, client, interval)
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow progress until the job finishes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Progress poll interval")
	return cmd
}

func newFollowCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Print the current job's progress until it finishes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return followAndReport(cmd, ctx.client(), interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Progress poll interval")
	return cmd
}

// followAndReport streams progress lines to stdout, then reports the final
// state. A failed job is returned as an error.
func followAndReport(cmd *cobra.Command, client *invitersdk.Client, interval time.Duration) error {
	out := cmd.OutOrStdout()
	err := client.Follow(cmd.Context(), interval, func(line string) {
		fmt.Fprintln(out, line)
	})
	if err != nil {
		return err
	}

	// Follow returns on the service's finished flag, which is only set once
	// the job's state is terminal.
	status, err := client.CurrentJob(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Job %s %s: %s\n", status.ID, status.State, countersLine(*status))
	if status.State == "failed" {
		return fmt.Errorf("job failed: %s", status.Error)
	}
	return nil
}
