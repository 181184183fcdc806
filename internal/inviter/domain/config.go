package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultAPIHost    = "api.cloudservices.f5.com"
	DefaultAPIVersion = "v1"
	DefaultRoleID     = "r-NAYFdYfiR"

	// MaxDelay bounds the pause between invitations.
	MaxDelay = 10 * time.Second
)

var ErrInvalidJobConfig = errors.New("invalid job config")

// JobConfig is everything one submission needs. It is built once and passed
// by value so concurrent requests can never bleed into a running job.
type JobConfig struct {
	Credentials Credentials
	APIHost     string
	APIVersion  string
	RoleID      string
	DryRun      bool

	// Delay is the pause after each invitation attempt. Zero disables it.
	Delay time.Duration

	// SourceName is the uploaded file name, for logs and history only.
	SourceName string
}

// WithDefaults fills empty directory settings with the stock values.
func (c JobConfig) WithDefaults() JobConfig {
	if strings.TrimSpace(c.APIHost) == "" {
		c.APIHost = DefaultAPIHost
	}
	if strings.TrimSpace(c.APIVersion) == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if strings.TrimSpace(c.RoleID) == "" {
		c.RoleID = DefaultRoleID
	}
	return c
}

// Validate checks the fields a job cannot start without.
func (c JobConfig) Validate() error {
	switch {
	case c.Credentials.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidJobConfig)
	case c.Credentials.Password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidJobConfig)
	case c.Delay < 0 || c.Delay > MaxDelay:
		return fmt.Errorf("%w: delay must be between 0 and %d ms", ErrInvalidJobConfig, MaxDelay.Milliseconds())
	}
	return nil
}
