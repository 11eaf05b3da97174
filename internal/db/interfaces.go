package db

import (
	"context"
	"errors"

	"keyvault-backend-go/internal/models"
)

var (
	// ErrNotFound is returned when a requested document or row does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable is returned while a backing store is not reachable or not yet initialized.
	ErrUnavailable = errors.New("audit store unavailable")
)

// DefaultAuditListLimit caps ListByUserID when the caller passes a non-positive limit.
const DefaultAuditListLimit = 100

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
	// ListByUserID returns the newest entries of userID first, at most limit of them.
	ListByUserID(ctx context.Context, userID string, limit int) ([]models.AuditLog, error)
	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultAuditListLimit {
		return DefaultAuditListLimit
	}
	return limit
}
