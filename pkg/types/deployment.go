package types

import "time"

// Operation identifies a mutating action against a workspace.
type Operation string

const (
	OpApply    Operation = "apply"
	OpDestroy  Operation = "destroy"
	OpRedeploy Operation = "redeploy"
	OpNuke     Operation = "nuke"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	switch op {
	case OpApply, OpDestroy, OpRedeploy, OpNuke:
		return true
	}
	return false
}

// Status is the outcome of a recorded deployment operation.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Deployment is one entry in the deployment ledger.
type Deployment struct {
	ID               string
	Workspace        string
	Operation        Operation
	Image            string
	TerraformVersion string
	Status           Status
	Error            string
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Duration returns the wall-clock time the operation took. Zero while
// the operation is still running.
func (d *Deployment) Duration() time.Duration {
	if d.FinishedAt.IsZero() {
		return 0
	}
	return d.FinishedAt.Sub(d.StartedAt)
}

// ImageRef is a container image in an Artifact Registry repository.
type ImageRef struct {
	Name       string
	Digest     string
	Tags       []string
	SizeBytes  int64
	UploadedAt time.Time
}

// Repository is an Artifact Registry repository.
type Repository struct {
	Name        string
	Format      string
	Description string
	CreatedAt   time.Time
}
