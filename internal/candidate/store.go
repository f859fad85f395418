package candidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/jobmatcher/internal/storage"
)

const keyPrefix = "profile:"

// Store persists structured profiles over the shared KV boundary.
type Store struct {
	kv storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load returns storage.ErrNotFound when the user has no stored profile.
func (s *Store) Load(ctx context.Context, id string) (*Profile, error) {
	data, err := s.kv.Load(ctx, keyPrefix+id)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) Save(ctx context.Context, p *Profile) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id is required")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.ID, err)
	}
	return s.kv.Save(ctx, keyPrefix+p.ID, data)
}

// ReadFile decodes a single profile from a JSON file.
func ReadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file %q: %w", path, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile file %q: %w", path, err)
	}
	return &p, nil
}

// ReadFiles decodes a JSON array of profiles.
func ReadFiles(path string) ([]*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file %q: %w", path, err)
	}

	var profiles []*Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decoding profiles file %q: %w", path, err)
	}
	return profiles, nil
}
