package main

import (
	"errors"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/spf13/cobra"
)

// jobFlags are the submission settings shared by submit and run.
type jobFlags struct {
	username   string
	password   string
	apiHost    string
	apiVersion string
	roleID     string
	dryRun     bool
	delay      time.Duration
}

func (f *jobFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.username, "username", "u", "", "Directory username (or INVITER_USERNAME)")
	flags.StringVarP(&f.password, "password", "p", "", "Directory password (or INVITER_PASSWORD)")
	flags.StringVar(&f.apiHost, "api-host", "", "Directory API host (default: server setting)")
	flags.StringVar(&f.apiVersion, "api-version", "", "Directory API version (default: server setting)")
	flags.StringVar(&f.roleID, "role-id", "", "Role granted to invitees (default: server setting)")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Log what would change without changing anything")
	flags.DurationVar(&f.delay, "delay", time.Second, "Pause after each invitation (max 10s)")
}

func (f *jobFlags) credentials() (string, string, error) {
	username := f.username
	if username == "" {
		username = envOr("INVITER_USERNAME", "")
	}
	password := f.password
	if password == "" {
		password = envOr("INVITER_PASSWORD", "")
	}
	if username == "" || password == "" {
		return "", "", errors.New("username and password are required (flags or INVITER_USERNAME/INVITER_PASSWORD)")
	}
	return username, password, nil
}

// config builds a validated local job config.
func (f *jobFlags) config(sourceName string) (domain.JobConfig, error) {
	username, password, err := f.credentials()
	if err != nil {
		return domain.JobConfig{}, err
	}

	cfg := domain.JobConfig{
		Credentials: domain.Credentials{Username: username, Password: password},
		APIHost:     f.apiHost,
		APIVersion:  f.apiVersion,
		RoleID:      f.roleID,
		DryRun:      f.dryRun,
		Delay:       f.delay,
		SourceName:  sourceName,
	}.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return domain.JobConfig{}, err
	}
	return cfg, nil
}
