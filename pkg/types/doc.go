// Package types defines the shared deployment domain types: operations,
// ledger entries, and Artifact Registry views, plus the sentinel errors
// used across packages.
package types
