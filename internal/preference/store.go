package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/storage"
)

const keyPrefix = "preferences:"

// Store keeps preference vectors per user. Updates for one user are serialized;
// different users never wait on each other.
type Store struct {
	kv     storage.KV
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*Vector
}

func NewStore(kv storage.KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:     kv,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		cache:  make(map[string]*Vector),
	}
}

// Get returns a copy of the user's vector, loading it on first access.
// Users without stored state get an empty vector.
func (s *Store) Get(ctx context.Context, userID string) (*Vector, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	v, err := s.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// Update applies fn to a working copy of the user's vector and persists the
// result before returning it. When fn or the save fails, the previous state is kept.
func (s *Store) Update(ctx context.Context, userID string, fn func(*Vector) error) (*Vector, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.current(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	data, err := json.Marshal(next.Payload())
	if err != nil {
		return nil, fmt.Errorf("encode preferences for %s: %w", userID, err)
	}
	if err := s.kv.Save(ctx, keyPrefix+userID, data); err != nil {
		return nil, fmt.Errorf("save preferences for %s: %w", userID, err)
	}

	s.mu.Lock()
	s.cache[userID] = next
	s.mu.Unlock()

	s.logger.Debug("preferences saved", zap.String("user_id", userID))
	return next.Clone(), nil
}

// current must be called with the user lock held.
func (s *Store) current(ctx context.Context, userID string) (*Vector, error) {
	s.mu.Lock()
	v, ok := s.cache[userID]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[userID] = v
	s.mu.Unlock()
	return v, nil
}

func (s *Store) load(ctx context.Context, userID string) (*Vector, error) {
	data, err := s.kv.Load(ctx, keyPrefix+userID)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("no stored preferences, starting empty", zap.String("user_id", userID))
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences for %s: %w", userID, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode preferences for %s: %w", userID, err)
	}
	return FromPayload(raw)
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
