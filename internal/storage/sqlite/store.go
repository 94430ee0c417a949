package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"burnwatch/internal/model"
	"burnwatch/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS block_heights (
	contract     TEXT PRIMARY KEY,
	block_height INTEGER NOT NULL,
	network_id   INTEGER NOT NULL
)`

// Store keeps checkpoints in a local SQLite file.
type Store struct {
	db *sql.DB
}

var _ storage.CheckpointStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and its table.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers across watchers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, networkID uint64, contract string) (uint64, bool, error) {
	var height int64
	row := s.db.QueryRowContext(ctx,
		`SELECT block_height FROM block_heights WHERE contract = ? AND network_id = ?`,
		contract, int64(networkID))
	if err := row.Scan(&height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get checkpoint: %w", err)
	}
	return uint64(height), true, nil
}

func (s *Store) EnsureSeeded(ctx context.Context, networkID uint64, contract string, height uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO block_heights (contract, block_height, network_id)
		VALUES (?, ?, ?)
		ON CONFLICT (contract) DO NOTHING`,
		contract, int64(height), int64(networkID))
	if err != nil {
		return fmt.Errorf("seed checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, contract string, height uint64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE block_heights SET block_height = ? WHERE contract = ?`,
		int64(height), contract)
	if err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNoCheckpoint, contract)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contract, block_height, network_id FROM block_heights ORDER BY network_id, contract`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []model.Checkpoint
	for rows.Next() {
		var (
			cp        model.Checkpoint
			height    int64
			networkID int64
		)
		if err := rows.Scan(&cp.ContractAddress, &height, &networkID); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		cp.BlockHeight = uint64(height)
		cp.NetworkID = uint64(networkID)
		out = append(out, cp)
	}
	return out, rows.Err()
}
