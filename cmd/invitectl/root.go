package main

import (
	"os"
	"strings"

	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

type commandContext struct {
	server  *string
	jsonOut *bool
}

func (c *commandContext) client() *invitersdk.Client {
	server := strings.TrimSpace(*c.server)
	if server == "" {
		server = defaultServer
	}
	return invitersdk.NewClient(server)
}

func (c *commandContext) json() bool {
	return c.jsonOut != nil && *c.jsonOut
}

func newRootCommand() *cobra.Command {
	var serverFlag string
	var jsonFlag bool

	ctx := &commandContext{server: &serverFlag, jsonOut: &jsonFlag}

	rootCmd := &cobra.Command{
		Use:           "invitectl",
		Short:         "Bulk invitation CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", envOr("INVITER_URL", defaultServer), "Inviter server base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newFollowCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newCancelCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newRunCommand())

	return rootCmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
