package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/docschat/docschat/pkg/types"
)

// Store is the SQLite-backed deployment ledger.
type Store struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Open creates or opens the ledger database at dbPath, creating parent
// directories and applying migrations as needed.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records the start of a deployment operation. The entry's ID,
// status, and start time are assigned here.
func (s *Store) Begin(ctx context.Context, d *types.Deployment) error {
	if err := types.ValidateWorkspace(d.Workspace); err != nil {
		return err
	}
	if !d.Operation.Valid() {
		return fmt.Errorf("%w: %s", types.ErrInvalidOperation, d.Operation)
	}

	d.ID = uuid.NewString()
	d.Status = types.StatusRunning
	d.StartedAt = time.Now().UTC()

	query := `
		INSERT INTO deployments (id, workspace, operation, image, terraform_version, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Workspace, string(d.Operation), d.Image,
		d.TerraformVersion, string(d.Status), d.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to record deployment start: %w", err)
	}
	return nil
}

// Finish records the outcome of a deployment operation.
func (s *Store) Finish(ctx context.Context, id string, status types.Status, errMsg string) error {
	query := `
		UPDATE deployments
		SET status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, string(status), errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to record deployment finish: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: deployment %s", types.ErrNotFound, id)
	}
	return nil
}

// Get returns one ledger entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Deployment, error) {
	query := selectColumns + ` WHERE id = ?`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// Latest returns a workspace's most recent entry.
func (s *Store) Latest(ctx context.Context, workspace string) (*types.Deployment, error) {
	query := selectColumns + `
		WHERE workspace = ?
		ORDER BY started_at DESC
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, workspace))
}

// ListByWorkspace returns up to limit entries for a workspace, newest
// first. A limit <= 0 means no limit.
func (s *Store) ListByWorkspace(ctx context.Context, workspace string, limit int) ([]*types.Deployment, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 is unlimited
	}
	query := selectColumns + `
		WHERE workspace = ?
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, workspace, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanAll(rows)
}

// List returns up to limit entries across all workspaces, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*types.Deployment, error) {
	if limit <= 0 {
		limit = -1
	}
	query := selectColumns + `
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanAll(rows)
}

// Prune deletes finished entries older than cutoff and returns how many
// were removed. Running entries are never pruned.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM deployments
		WHERE started_at < ? AND status != ?
	`
	result, err := s.db.ExecContext(ctx, query, cutoff, string(types.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to prune deployments: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

const selectColumns = `
	SELECT id, workspace, operation, image, terraform_version, status, error, started_at, finished_at
	FROM deployments
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeployment(row rowScanner) (*types.Deployment, error) {
	var d types.Deployment
	var op, status string
	var image, tfVersion, errMsg sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&d.ID, &d.Workspace, &op, &image, &tfVersion,
		&status, &errMsg, &d.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	d.Operation = types.Operation(op)
	d.Status = types.Status(status)
	d.Image = image.String
	d.TerraformVersion = tfVersion.String
	d.Error = errMsg.String
	if finishedAt.Valid {
		d.FinishedAt = finishedAt.Time
	}
	return &d, nil
}

func (s *Store) scanOne(row *sql.Row) (*types.Deployment, error) {
	d, err := scanDeployment(row)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func scanAll(rows *sql.Rows) ([]*types.Deployment, error) {
	deployments := make([]*types.Deployment, 0)
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}
