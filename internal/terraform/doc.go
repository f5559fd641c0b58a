// Package terraform drives the terraform CLI for the deployment
// configuration: binary resolution (explicit path, PATH, or a pinned
// install), workspace lifecycle, init/apply/destroy, targeted replace
// for redeploys, plan summaries, and a raw passthrough.
//
// Mutating operations retry on state-lock contention with exponential
// backoff and are guarded against concurrent use within the process.
package terraform
