package types

import "errors"

// Domain errors shared across packages
var (
	// Workspace and operation validation
	ErrWorkspaceRequired = errors.New("workspace is required")
	ErrInvalidWorkspace  = errors.New("invalid workspace name")
	ErrInvalidOperation  = errors.New("invalid operation")

	// Ledger errors
	ErrNotFound = errors.New("not found")
)

// Workspace names become terraform workspace names and tfvars file
// names, so the character set is deliberately narrow.
const workspaceChars = "abcdefghijklmnopqrstuvwxyz0123456789-"

// ValidateWorkspace checks that name is usable as a workspace name.
func ValidateWorkspace(name string) error {
	if name == "" {
		return ErrWorkspaceRequired
	}
	for _, r := range name {
		ok := false
		for _, c := range workspaceChars {
			if r == c {
				ok = true
				break
			}
		}
		if !ok {
			return ErrInvalidWorkspace
		}
	}
	if name[0] == '-' || name[len(name)-1] == '-' {
		return ErrInvalidWorkspace
	}
	return nil
}
