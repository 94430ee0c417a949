package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"burnwatch/internal/evmlog"
	"burnwatch/internal/model"
	"burnwatch/internal/retry"
	"burnwatch/internal/storage"
)

// (uint256 9999999, string "PMr2Syadd5t1LfZvtAxwQEtQNKpyXTNVtX")
const burnPayload = "0x" +
	"000000000000000000000000000000000000000000000000000000000098967f" +
	"0000000000000000000000000000000000000000000000000000000000000040" +
	"0000000000000000000000000000000000000000000000000000000000000022" +
	"504d723253796164643574314c665a7674417877514574514e4b707958544e56" +
	"7458000000000000000000000000000000000000000000000000000000000000"

const (
	contractA = "0x1111111111111111111111111111111111111111"
	contractB = "0x2222222222222222222222222222222222222222"
	burnTopic = "0x5d624aa9c148153ab3446c1b154f660ee7701e549fe9b62dab7171b1c80e6fa2"
)

func burnLog(contract string, block uint64, tx string) model.RawLog {
	return model.RawLog{
		Address:         contract,
		Data:            burnPayload,
		Topics:          []string{burnTopic},
		BlockNumber:     hexutil.EncodeUint64(block),
		TransactionHash: tx,
	}
}

func roundTrip(v interface{}, result interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

// fakeChain answers eth_blockNumber and eth_getLogs from canned state.
type fakeChain struct {
	mu        sync.Mutex
	height    uint64
	heightErr error
	logs      []model.RawLog
	logsErr   error

	heightCalls int
	filters     []evmlog.LogFilter
}

func (f *fakeChain) Call(ctx context.Context, req evmlog.Request, result interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch req.Method {
	case evmlog.MethodBlockNumber:
		f.heightCalls++
		if f.heightErr != nil {
			return retry.Transient(f.heightErr)
		}
		return roundTrip(hexutil.Uint64(f.height), result)
	case evmlog.MethodGetLogs:
		filter, ok := req.Params[0].(evmlog.LogFilter)
		if !ok {
			return retry.Terminal(fmt.Errorf("unexpected params %#v", req.Params))
		}
		f.filters = append(f.filters, filter)
		if f.logsErr != nil {
			return retry.Transient(f.logsErr)
		}
		from, err := hexutil.DecodeUint64(filter.FromBlock)
		if err != nil {
			return retry.Terminal(err)
		}
		matched := []model.RawLog{}
		for _, l := range f.logs {
			block, err := hexutil.DecodeUint64(l.BlockNumber)
			if err != nil || block >= from {
				matched = append(matched, l)
			}
		}
		return roundTrip(matched, result)
	default:
		return retry.Terminal(fmt.Errorf("unexpected method %s", req.Method))
	}
}

func (f *fakeChain) setHeight(h uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.height = h
}

func (f *fakeChain) getLogsCalls() []evmlog.LogFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]evmlog.LogFilter, len(f.filters))
	copy(out, f.filters)
	return out
}

// memStore is an in-memory CheckpointStore.
type memStore struct {
	mu     sync.Mutex
	rows   map[string]model.Checkpoint
	setErr error
	sets   chan model.Checkpoint
	closed int
}

func newMemStore() *memStore {
	return &memStore{
		rows: make(map[string]model.Checkpoint),
		sets: make(chan model.Checkpoint, 64),
	}
}

var _ storage.CheckpointStore = (*memStore)(nil)

func (s *memStore) Get(_ context.Context, networkID uint64, contract string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[contract]
	if !ok || row.NetworkID != networkID {
		return 0, false, nil
	}
	return row.BlockHeight, true, nil
}

func (s *memStore) EnsureSeeded(_ context.Context, networkID uint64, contract string, height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[contract]; ok {
		return nil
	}
	s.rows[contract] = model.Checkpoint{ContractAddress: contract, BlockHeight: height, NetworkID: networkID}
	return nil
}

func (s *memStore) Set(_ context.Context, contract string, height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	row, ok := s.rows[contract]
	if !ok {
		return storage.ErrNoCheckpoint
	}
	row.BlockHeight = height
	s.rows[contract] = row
	select {
	case s.sets <- row:
	default:
	}
	return nil
}

func (s *memStore) List(_ context.Context) ([]model.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Checkpoint, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContractAddress < out[j].ContractAddress })
	return out, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *memStore) height(contract string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[contract].BlockHeight
}

func (s *memStore) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type notification struct {
	event       model.BurnEvent
	explorerURL string
}

// recordingNotifier keeps every attempt and fails those whose tx is in failTx.
type recordingNotifier struct {
	mu       sync.Mutex
	attempts []notification
	failTx   map[string]bool
}

func (n *recordingNotifier) Notify(_ context.Context, event model.BurnEvent, explorerURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts = append(n.attempts, notification{event: event, explorerURL: explorerURL})
	if n.failTx[event.TransactionID] {
		return errors.New("telegram unavailable")
	}
	return nil
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification, len(n.attempts))
	copy(out, n.attempts)
	return out
}

type countingCloser struct {
	mu    sync.Mutex
	count int
}

func (c *countingCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

func (c *countingCloser) closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
