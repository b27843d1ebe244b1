// Package voter remembers which questions this client has already upvoted.
// The record is advisory: it only stops the local client from voting twice.
package voter

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// StateKey is the durable key holding the JSON array of voted ids.
const StateKey = "qboard_voted_ids"

// Storage is client-local durable key/value storage. db.KV implements it.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Tracker struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	storage Storage
	log     *zap.Logger
}

// Load builds a tracker from storage. Missing, unreadable or corrupt state is
// treated as an empty set.
func Load(ctx context.Context, storage Storage, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{ids: map[string]struct{}{}, storage: storage, log: log}

	raw, ok, err := storage.Get(ctx, StateKey)
	if err != nil {
		log.Warn("voter: read state failed", zap.Error(err))
		return t
	}
	if !ok || raw == "" {
		return t
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Warn("voter: corrupt state ignored", zap.Error(err))
		return t
	}
	for _, id := range ids {
		t.ids[id] = struct{}{}
	}
	return t
}

func (t *Tracker) HasVoted(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.ids[id]
	return ok
}

// RecordVote adds id and persists the set. The in-memory record is kept even
// if persisting fails.
func (t *Tracker) RecordVote(ctx context.Context, id string) error {
	t.mu.Lock()
	t.ids[id] = struct{}{}
	ids := make([]string, 0, len(t.ids))
	for k := range t.ids {
		ids = append(ids, k)
	}
	t.mu.Unlock()

	sort.Strings(ids)
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return t.storage.Set(ctx, StateKey, string(b))
}

// MemoryStorage is a Storage held in process memory.
type MemoryStorage struct {
	mu   sync.Mutex
	vals map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{vals: map[string]string{}}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	return nil
}
