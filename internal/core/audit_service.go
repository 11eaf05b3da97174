package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keyvault-backend-go/internal/db"
	"keyvault-backend-go/internal/models"
)

// ErrAuditUnavailable is returned while the audit store cannot be reached.
var ErrAuditUnavailable = errors.New("audit trail is unavailable")

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository) AuditService {
	return &auditService{
		auditRepo: auditRepo,
	}
}

// CreateAuditLog stamps the entry if needed and delegates storage to the AuditRepository.
func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if s.auditRepo == nil {
		return fmt.Errorf("AuditRepository not initialized in AuditService")
	}
	if logEntry.UserID == "" || logEntry.Action == "" {
		return fmt.Errorf("audit log requires userId and action, got %q/%q", logEntry.UserID, logEntry.Action)
	}
	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = time.Now().UTC()
	}

	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			return fmt.Errorf("%w: %v", ErrAuditUnavailable, err)
		}
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent audit entries, newest first.
func (s *auditService) ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	if s.auditRepo == nil {
		return nil, fmt.Errorf("AuditRepository not initialized in AuditService")
	}
	logs, err := s.auditRepo.ListByUserID(ctx, userID, limit)
	if err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrAuditUnavailable, err)
		}
		return nil, fmt.Errorf("failed to list audit logs for user '%s': %w", userID, err)
	}
	return logs, nil
}
