// Package registry holds the in-memory, ordered list of API keys that belongs to one
// dashboard session. Nothing here is persisted: a registry is created empty and is
// dropped together with its session.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"keyvault-backend-go/internal/crypto"
	"keyvault-backend-go/internal/models"
)

var (
	// ErrEmptyName is returned when a key name is empty after trimming whitespace.
	ErrEmptyName = errors.New("key name cannot be empty")
	// ErrNotFound is returned when no key with the given id exists, and by Revoke
	// when the key is already revoked.
	ErrNotFound = errors.New("key not found")
)

// SecretSealer protects key secrets while they sit in the registry.
type SecretSealer interface {
	Seal(plainText string) (string, error)
	Open(sealed string) (string, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithSecretGenerator overrides how new key secrets are produced.
func WithSecretGenerator(gen func() (string, error)) Option {
	return func(r *Registry) { r.generate = gen }
}

// Registry is a mutex-guarded, newest-first list of key records.
type Registry struct {
	mu       sync.Mutex
	keys     []models.KeyRecord
	lastID   int64
	sealer   SecretSealer
	now      func() time.Time
	generate func() (string, error)
}

// New creates an empty registry that seals secrets with sealer.
func New(sealer SecretSealer, opts ...Option) *Registry {
	r := &Registry{
		sealer:   sealer,
		now:      time.Now,
		generate: crypto.GenerateAPIKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create generates a new active key named name and places it first in the list.
// The returned CreatedKey carries the plain-text secret; it is the only time the
// full secret is handed out for display.
func (r *Registry) Create(name string) (models.CreatedKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.CreatedKey{}, ErrEmptyName
	}

	secret, err := r.generate()
	if err != nil {
		return models.CreatedKey{}, fmt.Errorf("failed to generate key secret: %w", err)
	}
	sealed, err := r.sealer.Seal(secret)
	if err != nil {
		return models.CreatedKey{}, fmt.Errorf("failed to seal key secret: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	record := models.KeyRecord{
		ID:           r.nextID(now),
		Name:         name,
		Prefix:       crypto.MaskAPIKey(secret),
		SealedSecret: sealed,
		Status:       models.KeyStatusActive,
		CreatedAt:    now,
	}
	r.keys = append([]models.KeyRecord{record}, r.keys...)

	return models.CreatedKey{Record: record, Secret: secret}, nil
}

// nextID derives an id from the creation time in milliseconds, bumping it when
// needed so ids stay strictly increasing. Callers must hold r.mu.
func (r *Registry) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}

// Rename replaces the name of key id. id, secret and status are left untouched.
func (r *Registry) Rename(id int64, newName string) (models.KeyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.KeyRecord{}, fmt.Errorf("rename %d: %w", id, ErrNotFound)
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.KeyRecord{}, ErrEmptyName
	}

	r.keys[i].Name = newName
	return r.keys[i], nil
}

// Revoke marks key id as revoked. Revoking an unknown or already revoked key
// returns ErrNotFound and changes nothing.
func (r *Registry) Revoke(id int64) (models.KeyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 || !r.keys[i].IsActive() {
		return models.KeyRecord{}, fmt.Errorf("revoke %d: %w", id, ErrNotFound)
	}

	revokedAt := r.now().UTC()
	r.keys[i].Status = models.KeyStatusRevoked
	r.keys[i].RevokedAt = &revokedAt
	return r.keys[i], nil
}

// CopySecret returns the plain-text secret of key id for a clipboard write.
// ok is false when the key does not exist.
func (r *Registry) CopySecret(id int64) (secret string, ok bool, err error) {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return "", false, nil
	}
	sealed := r.keys[i].SealedSecret
	r.mu.Unlock()

	secret, err = r.sealer.Open(sealed)
	if err != nil {
		return "", true, fmt.Errorf("failed to open secret of key %d: %w", id, err)
	}
	return secret, true, nil
}

// Get looks up key id.
func (r *Registry) Get(id int64) (models.KeyRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.KeyRecord{}, false
	}
	return r.keys[i], true
}

// List returns a snapshot of all keys, newest first.
func (r *Registry) List() []models.KeyRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.KeyRecord, len(r.keys))
	copy(out, r.keys)
	return out
}

// Filter returns the keys whose name contains query, ignoring case.
// An empty query returns every key.
func (r *Registry) Filter(query string) []models.KeyRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	all := r.List()
	if query == "" {
		return all
	}

	out := make([]models.KeyRecord, 0, len(all))
	for _, k := range all {
		if strings.Contains(strings.ToLower(k.Name), query) {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of keys, revoked ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

func (r *Registry) indexOf(id int64) int {
	for i := range r.keys {
		if r.keys[i].ID == id {
			return i
		}
	}
	return -1
}
