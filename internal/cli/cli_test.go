package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/pkg/types"
)

func writeProject(t *testing.T, withEnv bool, withVars bool) string {
	t.Helper()
	dir := t.TempDir()

	if withEnv {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("INKEEP_API_KEY=test-key\n"), 0644))
	}
	if withVars {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "envs"), 0755))
		tfvars := `project_id       = "my-project"
region             = "us-central1"
image              = "us-docker.pkg.dev/my-project/mcp/docschat:v1"
min_instance_count = 0
max_instance_count = 2
container_memory   = "512Mi"
dns_managed_zone   = "docs-example-com"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "envs", "staging.tfvars"),
			[]byte(tfvars), 0644))
	}
	return dir
}

func TestRequireWorkspace(t *testing.T) {
	orig := flagWorkspace
	defer func() { flagWorkspace = orig }()

	flagWorkspace = ""
	_, err := requireWorkspace()
	assert.ErrorIs(t, err, types.ErrWorkspaceRequired)

	flagWorkspace = "Staging!"
	_, err = requireWorkspace()
	assert.ErrorIs(t, err, types.ErrInvalidWorkspace)

	flagWorkspace = "staging"
	ws, err := requireWorkspace()
	require.NoError(t, err)
	assert.Equal(t, "staging", ws)
}

func TestPreflightMissingEnvFile(t *testing.T) {
	dir := writeProject(t, false, true)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	_, err = preflight(cfg, "staging")
	assert.ErrorIs(t, err, config.ErrMissingEnvFile)
}

func TestPreflightMissingVarsFile(t *testing.T) {
	dir := writeProject(t, true, false)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	_, err = preflight(cfg, "staging")
	assert.ErrorIs(t, err, config.ErrMissingVarsFile)
}

func TestPreflight(t *testing.T) {
	t.Setenv("TF_VAR_inkeep_api_key", "")
	dir := writeProject(t, true, true)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	vars, err := preflight(cfg, "staging")
	require.NoError(t, err)

	assert.Equal(t, "my-project", vars.ProjectID)
	assert.Equal(t, "us-central1", vars.Region)

	// The key must reach terraform child processes.
	assert.Equal(t, "test-key", os.Getenv("TF_VAR_inkeep_api_key"))
}

func TestRecordedKeepsTerraformVersion(t *testing.T) {
	origLogger := logger
	logger = zap.NewNop()
	defer func() { logger = origLogger }()

	dir := writeProject(t, true, true)
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	ctx := context.Background()
	err = recorded(ctx, cfg, "staging", types.OpApply,
		"us-docker.pkg.dev/my-project/mcp/docschat:v1", "1.9.8",
		func() error { return nil })
	require.NoError(t, err)

	store, err := history.Open(cfg.HistoryDBPath())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	latest, err := store.Latest(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, "1.9.8", latest.TerraformVersion)
	assert.Equal(t, types.StatusSucceeded, latest.Status)
}

func TestRecordedMarksFailures(t *testing.T) {
	origLogger := logger
	logger = zap.NewNop()
	defer func() { logger = origLogger }()

	dir := writeProject(t, true, true)
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	ctx := context.Background()
	err = recorded(ctx, cfg, "staging", types.OpRedeploy, "", "1.9.8",
		func() error { return errors.New("revision never became ready") })
	require.Error(t, err)

	store, err := history.Open(cfg.HistoryDBPath())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	latest, err := store.Latest(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, latest.Status)
	assert.Equal(t, "revision never became ready", latest.Error)
	assert.Equal(t, "1.9.8", latest.TerraformVersion)
}

func TestConfirmAssumeYes(t *testing.T) {
	ok, err := confirm("proceed?", true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{
		"serve", "init", "apply", "destroy", "redeploy", "plan", "status",
		"workspace", "tf", "artifacts", "auth", "history", "version",
	} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}

func TestWriteStatus(t *testing.T) {
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	latest := &types.Deployment{
		Workspace:        "staging",
		Operation:        types.OpApply,
		Status:           types.StatusSucceeded,
		TerraformVersion: "1.9.8",
		StartedAt:        started,
		FinishedAt:       started.Add(90 * time.Second),
	}

	var buf bytes.Buffer
	writeStatus(&buf, "staging", "us-docker.pkg.dev/my-project/mcp/docschat:v1", latest)

	out := buf.String()
	assert.Contains(t, out, "workspace: staging")
	assert.Contains(t, out, "deployed image: us-docker.pkg.dev/my-project/mcp/docschat:v1")
	assert.Contains(t, out, "apply succeeded")
	assert.Contains(t, out, "terraform: 1.9.8")
}

func TestWriteStatusEmptyState(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, "staging", "", nil)

	out := buf.String()
	assert.Contains(t, out, "deployed image: none")
	assert.Contains(t, out, "last deployment: none recorded")
}

func TestWorkspaceSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range workspaceCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["new"])
	assert.True(t, names["nuke"])
}
