// Package config resolves project configuration from three sources:
//
//   - .env at the project root, supplying INKEEP_API_KEY. The process
//     environment takes precedence so CI and Cloud Run can inject the
//     key directly.
//   - envs/<workspace>.tfvars, the per-workspace terraform variables
//     (project, region, image, scaling bounds, DNS zone). All are
//     required and validated up front so terraform never starts with a
//     half-configured workspace.
//   - docschat.toml, optional project-level settings (terraform binary
//     or version pin, tfvars directory, ledger database location).
//
// Pre-flight failures (missing .env, missing key, missing tfvars file,
// missing variable) are sentinel errors so the CLI can report them and
// exit 1 before any external tool runs.
package config
