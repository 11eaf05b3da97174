package core

import (
	"context"

	"keyvault-backend-go/internal/identity"
	"keyvault-backend-go/internal/models"
)

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditLog, error)
}

// DashboardService manages mounted dashboard sessions. Every mount gets a fresh,
// empty key registry owned by the mounting user.
type DashboardService interface {
	Mount(ctx context.Context, profile identity.Profile, client ClientInfo) (*DashboardSession, error)
	// Session returns ErrSessionNotFound for unknown ids and for sessions owned by another user.
	Session(ctx context.Context, userID, sessionID string) (*DashboardSession, error)
	Unmount(ctx context.Context, userID, sessionID string, client ClientInfo) error
	// Run evicts idle sessions until ctx is cancelled.
	Run(ctx context.Context)
}

// ClientInfo identifies the caller in audit entries.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}
