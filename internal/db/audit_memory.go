package db

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"keyvault-backend-go/internal/models"
)

// memoryAuditRepository keeps audit entries in process memory. Entries are lost on restart.
type memoryAuditRepository struct {
	mu      sync.RWMutex
	entries []models.AuditLog
	nextID  int64
}

// NewMemoryAuditRepository returns an empty in-memory AuditRepository.
func NewMemoryAuditRepository() AuditRepository {
	return &memoryAuditRepository{}
}

func (r *memoryAuditRepository) Create(_ context.Context, logEntry models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	logEntry.ID = strconv.FormatInt(r.nextID, 10)
	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = time.Now().UTC()
	}
	r.entries = append(r.entries, logEntry)
	return nil
}

// ListByUserID walks the log backwards so the newest entries come first.
func (r *memoryAuditRepository) ListByUserID(_ context.Context, userID string, limit int) ([]models.AuditLog, error) {
	limit = normalizeLimit(limit)
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.AuditLog{}
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *memoryAuditRepository) Close() error { return nil }

// DeferredAuditRepository forwards to a repository installed after startup, such
// as the Firestore one that waits for Firebase. Until then every call returns ErrUnavailable.
type DeferredAuditRepository struct {
	target atomic.Pointer[repositoryHolder]
}

type repositoryHolder struct{ AuditRepository }

// NewDeferredAuditRepository returns a repository with no target installed.
func NewDeferredAuditRepository() *DeferredAuditRepository {
	return &DeferredAuditRepository{}
}

// Install sets the target repository.
func (d *DeferredAuditRepository) Install(repo AuditRepository) {
	d.target.Store(&repositoryHolder{repo})
}

func (d *DeferredAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	h := d.target.Load()
	if h == nil {
		return ErrUnavailable
	}
	return h.Create(ctx, logEntry)
}

func (d *DeferredAuditRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	h := d.target.Load()
	if h == nil {
		return nil, ErrUnavailable
	}
	return h.ListByUserID(ctx, userID, limit)
}

func (d *DeferredAuditRepository) Close() error {
	h := d.target.Load()
	if h == nil {
		return nil
	}
	return h.Close()
}
