// Package cli defines the docschat command tree.
//
// The deployment commands (apply, destroy, redeploy, workspace nuke)
// validate the .env file and the workspace's tfvars file before a
// single terraform process is spawned, record their outcome in the
// deployment ledger, and propagate terraform's exit status. Read-only
// commands (workspace list, artifacts, history) skip the .env check.
package cli
