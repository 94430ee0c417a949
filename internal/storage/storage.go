package storage

import (
	"context"
	"errors"

	"burnwatch/internal/model"
)

// ErrNoCheckpoint is returned by Set when the contract was never seeded.
var ErrNoCheckpoint = errors.New("no checkpoint for contract")

// CheckpointStore persists the last scanned block height per contract.
// Rows are keyed by contract address alone; callers must not reuse a
// contract address across networks.
type CheckpointStore interface {
	// Get returns the stored height, or false when no row exists.
	Get(ctx context.Context, networkID uint64, contract string) (uint64, bool, error)
	// EnsureSeeded inserts height only when the contract has no row yet.
	EnsureSeeded(ctx context.Context, networkID uint64, contract string, height uint64) error
	// Set overwrites the height of an existing row.
	Set(ctx context.Context, contract string, height uint64) error
	List(ctx context.Context) ([]model.Checkpoint, error)
	Close() error
}
