// Package history is the SQLite-backed deployment ledger. Every
// mutating operation (apply, destroy, redeploy, workspace nuke) gets an
// entry recording the workspace, image, terraform version, timestamps,
// and outcome, so "what is running in prod and since when" has an
// answer that doesn't require digging through terraform state.
//
// Two build configurations exist, selected by the cgo_sqlite tag:
// mattn/go-sqlite3 under CGO, modernc.org/sqlite (pure Go) by default.
package history
