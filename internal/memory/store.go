// Package memory provides an in-process claims.Repository for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/kylejryan/vehicle-claims-api/internal/claims"
	"github.com/kylejryan/vehicle-claims-api/internal/models"

	"github.com/oklog/ulid/v2"
)

// Store keeps claims in a map keyed by ULID.
type Store struct {
	mu   sync.RWMutex
	data map[string]models.Claim
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string]models.Claim)}
}

func (s *Store) NewID() string { return ulid.Make().String() }

func (s *Store) ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

func (s *Store) Insert(_ context.Context, c models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[c.ID]; ok {
		return claims.ErrConflict
	}
	s.data[c.ID] = c
	return nil
}

func (s *Store) List(_ context.Context) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Claim, 0, len(s.data))
	for _, c := range s.data {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[id]
	if !ok {
		return models.Claim{}, claims.ErrNotFound
	}
	return c, nil
}

func (s *Store) Replace(_ context.Context, c models.Claim, prevVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data[c.ID]
	if !ok {
		return claims.ErrNotFound
	}
	if cur.Version != prevVersion {
		return claims.ErrConflict
	}
	s.data[c.ID] = c
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return claims.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op so the Store satisfies io.Closer like the network backends.
func (s *Store) Close() error { return nil }
