// Package gcloud wraps the interactive pieces of the gcloud CLI that
// the Cloud SDKs cannot replace: browser-based login, application
// default credentials, project selection, and the docker credential
// helper. Child processes inherit stdio so prompts reach the user.
package gcloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// ErrGcloudNotFound is returned when the gcloud binary is not on PATH.
var ErrGcloudNotFound = errors.New("gcloud binary not found")

// CLI runs gcloud subcommands.
type CLI struct {
	path string
	log  *zap.Logger
}

// New locates the gcloud binary.
func New(log *zap.Logger) (*CLI, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path, err := exec.LookPath("gcloud")
	if err != nil {
		return nil, ErrGcloudNotFound
	}
	return &CLI{path: path, log: log}, nil
}

func (c *CLI) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	c.log.Info("running gcloud", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gcloud %v: %w", args, err)
	}
	return nil
}

// Login performs the interactive account and application-default
// credential logins.
func (c *CLI) Login(ctx context.Context) error {
	if err := c.run(ctx, "auth", "login"); err != nil {
		return err
	}
	return c.run(ctx, "auth", "application-default", "login")
}

// Setup points gcloud at the workspace's project and registers the
// docker credential helper for its Artifact Registry host.
func (c *CLI) Setup(ctx context.Context, projectID, region string) error {
	if err := c.run(ctx, "config", "set", "project", projectID); err != nil {
		return err
	}
	host := DockerHost(region)
	return c.run(ctx, "auth", "configure-docker", host, "--quiet")
}

// DockerHost returns the Artifact Registry docker host for a region.
func DockerHost(region string) string {
	return region + "-docker.pkg.dev"
}
