package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"burnwatch/internal/model"
	"burnwatch/internal/storage"
)

// Store provides Postgres persistence for checkpoints.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.CheckpointStore = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS block_heights (
			contract     TEXT PRIMARY KEY,
			block_height BIGINT NOT NULL,
			network_id   BIGINT NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Get returns block_height for a contract on a network.
func (s *Store) Get(ctx context.Context, networkID uint64, contract string) (uint64, bool, error) {
	var height int64
	row := s.pool.QueryRow(ctx,
		`SELECT block_height FROM block_heights WHERE contract=$1 AND network_id=$2`,
		contract, int64(networkID))
	if err := row.Scan(&height); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(height), true, nil
}

// EnsureSeeded inserts the seed row unless the contract already has one.
func (s *Store) EnsureSeeded(ctx context.Context, networkID uint64, contract string, height uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO block_heights (contract, block_height, network_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (contract) DO NOTHING
	`, contract, int64(height), int64(networkID))
	return err
}

// Set overwrites block_height for a seeded contract.
func (s *Store) Set(ctx context.Context, contract string, height uint64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE block_heights SET block_height=$2, updated_at=now() WHERE contract=$1
	`, contract, int64(height))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNoCheckpoint, contract)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.Checkpoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT contract, block_height, network_id FROM block_heights ORDER BY network_id, contract`)
	if err != nil {
		return nil, err
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
			return nil, err
		}
		cp.BlockHeight = uint64(height)
		cp.NetworkID = uint64(networkID)
		out = append(out, cp)
	}
	return out, rows.Err()
}
