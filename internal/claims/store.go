// Package claims owns the claim schema and its persistence contract.
//
// A Store validates every write and delegates storage to a Repository. The
// repository assigns identifiers, so the id format depends on the backend
// (24-hex ObjectIDs for MongoDB, ULIDs for DynamoDB and memory).
package claims

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/models"
	"github.com/kylejryan/vehicle-claims-api/internal/validate"
)

// Repository is the single-collection persistence contract behind a Store.
type Repository interface {
	// NewID returns a fresh identifier in the repository's native format.
	NewID() string

	// ValidID reports whether id is well-formed for this repository.
	ValidID(id string) bool

	// Insert stores a new claim. The claim's ID must not exist yet.
	Insert(ctx context.Context, c models.Claim) error

	// List returns every stored claim in no particular order.
	List(ctx context.Context) ([]models.Claim, error)

	// Get returns the claim with id, or ErrNotFound.
	Get(ctx context.Context, id string) (models.Claim, error)

	// Replace overwrites the stored claim if its version still equals prevVersion.
	// It returns ErrNotFound when the claim is gone and ErrConflict when the version moved.
	Replace(ctx context.Context, c models.Claim, prevVersion int64) error

	// Delete removes the claim with id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Ping checks that the backing service is reachable.
	Ping(ctx context.Context) error
}

// Store validates claims and persists them through a Repository.
type Store struct {
	repo Repository
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store over repo.
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{repo: repo, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Insert validates f and persists it as a new claim with a generated id,
// timestamps and status defaulted to Pending.
func (s *Store) Insert(ctx context.Context, f Fields) (models.Claim, error) {
	const op = "insert claim"

	c := models.Claim{Status: models.StatusPending}
	if err := s.check(op, f.applyTo(&c), c); err != nil {
		return models.Claim{}, err
	}

	now := s.clock()
	c.ID = s.repo.NewID()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	if err := s.repo.Insert(ctx, c); err != nil {
		return models.Claim{}, wrap(op, err)
	}
	return c, nil
}

// FindAll returns every stored claim ordered by creation time, then id.
func (s *Store) FindAll(ctx context.Context) ([]models.Claim, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrap("list claims", err)
	}
	if out == nil {
		out = []models.Claim{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindByID returns the claim with id.
func (s *Store) FindByID(ctx context.Context, id string) (models.Claim, error) {
	const op = "find claim"

	if !s.repo.ValidID(id) {
		return models.Claim{}, wrap(op, invalidID(id))
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Claim{}, wrap(op, err)
	}
	return c, nil
}

// UpdateByID merges f into the stored claim, re-validates the result and
// persists it with a refreshed updatedAt. id and createdAt never change.
func (s *Store) UpdateByID(ctx context.Context, id string, f Fields) (models.Claim, error) {
	const op = "update claim"

	if !s.repo.ValidID(id) {
		return models.Claim{}, wrap(op, invalidID(id))
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Claim{}, wrap(op, err)
	}

	next := current
	if err := s.check(op, f.applyTo(&next), next); err != nil {
		return models.Claim{}, err
	}

	next.UpdatedAt = s.advance(current.UpdatedAt)
	next.Version = current.Version + 1

	if err := s.repo.Replace(ctx, next, current.Version); err != nil {
		return models.Claim{}, wrap(op, err)
	}
	return next, nil
}

// DeleteByID removes the claim with id.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	const op = "delete claim"

	if !s.repo.ValidID(id) {
		return wrap(op, invalidID(id))
	}
	return wrap(op, s.repo.Delete(ctx, id))
}

// Ping reports whether the repository is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", s.repo.Ping(ctx))
}

// check merges conversion errors with the full validation pass over c.
func (s *Store) check(op string, conv validate.Errors, c models.Claim) error {
	errs := conv
	if err := validate.Claim(c); err != nil {
		var more validate.Errors
		if errors.As(err, &more) {
			errs = errs.Merge(more)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Op: op, Err: errs}
}

// clock returns the current time truncated to the millisecond precision every backend can store.
func (s *Store) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// advance returns a timestamp strictly after prev.
func (s *Store) advance(prev time.Time) time.Time {
	now := s.clock()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

type idError struct{ id string }

func (e idError) Error() string { return ErrInvalidID.Error() + ": " + e.id }

func (e idError) Unwrap() error { return ErrInvalidID }

func invalidID(id string) error { return idError{id: id} }
