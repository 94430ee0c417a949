package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"burnwatch/internal/model"
	"burnwatch/internal/storage"
)

const defaultPrefix = "burnwatch:"

// Options selects the Redis server and key namespace.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store keeps one JSON checkpoint per contract plus a set indexing them.
//
//	<prefix>checkpoint:<contract> -> {"contract":...,"block_height":...,"network_id":...}
//	<prefix>checkpoints           -> set of contracts
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.CheckpointStore = (*Store)(nil)

func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &Store{client: rdb, prefix: prefix}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(contract string) string {
	return s.prefix + "checkpoint:" + contract
}

func (s *Store) indexKey() string {
	return s.prefix + "checkpoints"
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, g getter, key string) (model.Checkpoint, bool, error) {
	val, err := g.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return model.Checkpoint{}, false, nil
	}
	if err != nil {
		return model.Checkpoint{}, false, err
	}
	var cp model.Checkpoint
	if err := json.Unmarshal([]byte(val), &cp); err != nil {
		return model.Checkpoint{}, false, fmt.Errorf("decode checkpoint %s: %w", key, err)
	}
	return cp, true, nil
}

func (s *Store) Get(ctx context.Context, networkID uint64, contract string) (uint64, bool, error) {
	cp, ok, err := load(ctx, s.client, s.key(contract))
	if err != nil || !ok || cp.NetworkID != networkID {
		return 0, false, err
	}
	return cp.BlockHeight, true, nil
}

func (s *Store) EnsureSeeded(ctx context.Context, networkID uint64, contract string, height uint64) error {
	data, err := json.Marshal(model.Checkpoint{ContractAddress: contract, BlockHeight: height, NetworkID: networkID})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, s.key(contract), data, 0)
		pipe.SAdd(ctx, s.indexKey(), contract)
		return nil
	})
	return err
}

// Set rewrites the height under WATCH so the stored network id is kept.
func (s *Store) Set(ctx context.Context, contract string, height uint64) error {
	key := s.key(contract)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		cp, ok, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", storage.ErrNoCheckpoint, contract)
		}
		cp.BlockHeight = height
		data, err := json.Marshal(cp)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
}

func (s *Store) List(ctx context.Context) ([]model.Checkpoint, error) {
	contracts, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.Checkpoint, 0, len(contracts))
	for _, contract := range contracts {
		cp, ok, err := load(ctx, s.client, s.key(contract))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NetworkID != out[j].NetworkID {
			return out[i].NetworkID < out[j].NetworkID
		}
		return out[i].ContractAddress < out[j].ContractAddress
	})
	return out, nil
}
