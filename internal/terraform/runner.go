package terraform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hashicorp/terraform-exec/tfexec"
	tfjson "github.com/hashicorp/terraform-json"
	"go.uber.org/zap"
)

// Common errors
var (
	ErrApplyInProgress    = errors.New("another apply is already running")
	ErrWorkspaceNotFound  = errors.New("terraform workspace not found")
	ErrNoTerraformBinary  = errors.New("terraform binary not found")
	ErrDefaultWorkspace   = errors.New("refusing to operate on the default workspace")
	ErrStateLockContended = errors.New("terraform state is locked")
)

// Options configures a Runner.
type Options struct {
	// WorkDir is the directory holding the terraform configuration.
	WorkDir string

	// ExecPath is an explicit terraform binary. When empty the
	// binary is resolved from PATH or installed (see ensure.go).
	ExecPath string

	// Version is installed when no binary is found.
	Version string

	Retry RetryConfig
}

// Runner drives the terraform CLI for one configuration directory.
// Mutating operations hold a per-runner guard so two applies can never
// race each other inside one process; terraform's own state lock covers
// the cross-process case.
type Runner struct {
	tf       *tfexec.Terraform
	execPath string
	workDir  string
	retry    RetryConfig
	guard    OpLock
	log      *zap.Logger
}

// NewRunner resolves the terraform binary and prepares a runner for
// opts.WorkDir.
func NewRunner(ctx context.Context, opts Options, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}

	execPath, err := EnsureTerraform(ctx, opts.ExecPath, opts.Version)
	if err != nil {
		return nil, err
	}

	tf, err := tfexec.NewTerraform(opts.WorkDir, execPath)
	if err != nil {
		return nil, fmt.Errorf("prepare terraform runner: %w", err)
	}
	// Stream terraform's own output; plan/show still capture JSON
	// through their return values.
	tf.SetStdout(os.Stdout)
	tf.SetStderr(os.Stderr)

	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}

	return &Runner{
		tf:       tf,
		execPath: execPath,
		workDir:  opts.WorkDir,
		retry:    retry,
		log:      log,
	}, nil
}

// ExecPath returns the resolved terraform binary path.
func (r *Runner) ExecPath() string { return r.execPath }

// Version returns the terraform version string.
func (r *Runner) Version(ctx context.Context) (string, error) {
	v, _, err := r.tf.Version(ctx, true)
	if err != nil {
		return "", fmt.Errorf("terraform version: %w", err)
	}
	return v.String(), nil
}

// InitOptions configure terraform init.
type InitOptions struct {
	Upgrade     bool
	Reconfigure bool
}

// Init runs terraform init.
func (r *Runner) Init(ctx context.Context, opts InitOptions) error {
	r.log.Info("terraform init",
		zap.Bool("upgrade", opts.Upgrade),
		zap.Bool("reconfigure", opts.Reconfigure))

	args := []tfexec.InitOption{
		tfexec.Upgrade(opts.Upgrade),
	}
	if opts.Reconfigure {
		args = append(args, tfexec.Reconfigure(true))
	}
	if err := r.tf.Init(ctx, args...); err != nil {
		return fmt.Errorf("terraform init: %w", err)
	}
	return nil
}

// Workspaces lists workspace names and the currently selected one.
func (r *Runner) Workspaces(ctx context.Context) ([]string, string, error) {
	list, current, err := r.tf.WorkspaceList(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("terraform workspace list: %w", err)
	}
	return list, current, nil
}

// EnsureWorkspace selects the named workspace, creating it first when
// it does not exist yet.
func (r *Runner) EnsureWorkspace(ctx context.Context, name string) error {
	list, current, err := r.Workspaces(ctx)
	if err != nil {
		return err
	}
	if current == name {
		return nil
	}
	for _, ws := range list {
		if ws == name {
			if err := r.tf.WorkspaceSelect(ctx, name); err != nil {
				return fmt.Errorf("terraform workspace select %s: %w", name, err)
			}
			return nil
		}
	}

	r.log.Info("creating terraform workspace", zap.String("workspace", name))
	if err := r.tf.WorkspaceNew(ctx, name); err != nil {
		return fmt.Errorf("terraform workspace new %s: %w", name, err)
	}
	return nil
}

// SelectWorkspace selects an existing workspace, failing when it does
// not exist.
func (r *Runner) SelectWorkspace(ctx context.Context, name string) error {
	list, current, err := r.Workspaces(ctx)
	if err != nil {
		return err
	}
	if current == name {
		return nil
	}
	for _, ws := range list {
		if ws == name {
			if err := r.tf.WorkspaceSelect(ctx, name); err != nil {
				return fmt.Errorf("terraform workspace select %s: %w", name, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, name)
}

// DeleteWorkspace removes a workspace. The default workspace cannot be
// deleted; terraform forbids it and so do we, earlier and with a
// clearer error.
func (r *Runner) DeleteWorkspace(ctx context.Context, name string) error {
	if name == "default" {
		return ErrDefaultWorkspace
	}
	// Can't delete the selected workspace; move off it first.
	if err := r.tf.WorkspaceSelect(ctx, "default"); err != nil {
		return fmt.Errorf("terraform workspace select default: %w", err)
	}
	if err := r.tf.WorkspaceDelete(ctx, name); err != nil {
		return fmt.Errorf("terraform workspace delete %s: %w", name, err)
	}
	return nil
}

// ApplyOptions configure an apply.
type ApplyOptions struct {
	// VarFile is the workspace tfvars path.
	VarFile string

	// Replace lists resource addresses to force-recreate. Used by
	// redeploy to roll the Cloud Run service onto a fresh revision.
	Replace []string
}

// Apply runs terraform apply with retry on state-lock contention.
func (r *Runner) Apply(ctx context.Context, opts ApplyOptions) error {
	if !r.guard.TryAcquire() {
		return ErrApplyInProgress
	}
	defer r.guard.Release()

	args := []tfexec.ApplyOption{}
	if opts.VarFile != "" {
		args = append(args, tfexec.VarFile(opts.VarFile))
	}
	for _, addr := range opts.Replace {
		args = append(args, tfexec.Replace(addr))
	}

	r.log.Info("terraform apply",
		zap.String("var_file", opts.VarFile),
		zap.Strings("replace", opts.Replace))

	return retryOnLock(ctx, r.retry, r.log, func() error {
		if err := r.tf.Apply(ctx, args...); err != nil {
			return fmt.Errorf("terraform apply: %w", err)
		}
		return nil
	})
}

// Destroy runs terraform destroy with retry on state-lock contention.
func (r *Runner) Destroy(ctx context.Context, varFile string) error {
	if !r.guard.TryAcquire() {
		return ErrApplyInProgress
	}
	defer r.guard.Release()

	args := []tfexec.DestroyOption{}
	if varFile != "" {
		args = append(args, tfexec.VarFile(varFile))
	}

	r.log.Info("terraform destroy", zap.String("var_file", varFile))

	return retryOnLock(ctx, r.retry, r.log, func() error {
		if err := r.tf.Destroy(ctx, args...); err != nil {
			return fmt.Errorf("terraform destroy: %w", err)
		}
		return nil
	})
}

// PlanSummary plans against varFile and summarizes the pending changes
// without applying anything.
func (r *Runner) PlanSummary(ctx context.Context, varFile string) (*Summary, error) {
	planFile, err := os.CreateTemp("", "docschat-plan-*.tfplan")
	if err != nil {
		return nil, fmt.Errorf("create plan file: %w", err)
	}
	planPath := planFile.Name()
	_ = planFile.Close()
	defer func() { _ = os.Remove(planPath) }()

	args := []tfexec.PlanOption{tfexec.Out(planPath)}
	if varFile != "" {
		args = append(args, tfexec.VarFile(varFile))
	}

	changed, err := r.tf.Plan(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("terraform plan: %w", err)
	}
	if !changed {
		return &Summary{}, nil
	}

	plan, err := r.tf.ShowPlanFile(ctx, planPath)
	if err != nil {
		return nil, fmt.Errorf("terraform show: %w", err)
	}
	s := Summarize(plan)
	return &s, nil
}

// State returns the current state as parsed JSON.
func (r *Runner) State(ctx context.Context) (*tfjson.State, error) {
	state, err := r.tf.Show(ctx)
	if err != nil {
		return nil, fmt.Errorf("terraform show: %w", err)
	}
	return state, nil
}

// RunRaw forwards arbitrary arguments to the terraform binary with
// stdio attached. tfexec has no generic passthrough, so the binary is
// executed directly.
func (r *Runner) RunRaw(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.execPath, args...)
	cmd.Dir = r.workDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	r.log.Info("terraform passthrough", zap.String("args", strings.Join(args, " ")))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("terraform %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
