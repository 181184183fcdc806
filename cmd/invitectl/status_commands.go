package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running job, or the last one to finish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().CurrentJob(cmd.Context())
			if invitersdk.IsCode(err, invitersdk.CodeNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No job has run since the server started")
				return nil
			}
			if err != nil {
				return err
			}

			if ctx.json() {
				return writeJSON(cmd, status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(*status))
			return nil
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Stop the running job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().CancelJob(cmd.Context())
			if invitersdk.IsCode(err, invitersdk.CodeNotFound) {
				return fmt.Errorf("no job is running")
			}
			if err != nil {
				return err
			}

			if ctx.json() {
				return writeJSON(cmd, status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for job %s\n", status.ID)
			return nil
		},
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List job history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := ctx.client().ListJobs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if ctx.json() {
				return writeJSON(cmd, invitersdk.JobList{Jobs: jobs})
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, j := range jobs {
				rows = append(rows, []string{
					j.ID,
					j.State,
					j.SourceName,
					yesNo(j.DryRun),
					strconv.Itoa(j.Processed),
					strconv.Itoa(j.Invited),
					strconv.Itoa(j.Skipped),
					strconv.Itoa(j.Deleted),
					strconv.Itoa(j.Failures),
					humanize.Time(j.StartedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "State", "List", "Dry run", "Rows", "Invited", "Skipped", "Deleted", "Failures", "Started"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs")
	return cmd
}

func renderStatus(s invitersdk.JobStatus) string {
	rows := [][]string{
		{"ID", s.ID},
		{"State", s.State},
		{"List", s.SourceName},
		{"Dry run", yesNo(s.DryRun)},
		{"Rows", strconv.Itoa(s.Processed)},
		{"Invited", strconv.Itoa(s.Invited)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Deleted", strconv.Itoa(s.Deleted)},
		{"Failures", strconv.Itoa(s.Failures)},
		{"Started", humanize.Time(s.StartedAt)},
	}
	if s.FinishedAt != nil {
		rows = append(rows, []string{"Took", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()})
	}
	if s.Error != "" {
		rows = append(rows, []string{"Error", s.Error})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func countersLine(s invitersdk.JobStatus) string {
	parts := []string{
		"rows " + strconv.Itoa(s.Processed),
		"invited " + strconv.Itoa(s.Invited),
		"skipped " + strconv.Itoa(s.Skipped),
		"deleted " + strconv.Itoa(s.Deleted),
		"failures " + strconv.Itoa(s.Failures),
	}
	return strings.Join(parts, ", ")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
