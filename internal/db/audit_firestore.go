package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"keyvault-backend-go/internal/models"
)

const auditLogsCollection = "audit_logs"

// firestoreAuditRepository implements AuditRepository using Firestore.
type firestoreAuditRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreAuditRepository creates a new instance of firestoreAuditRepository.
func NewFirestoreAuditRepository(client *firestore.Client, logger *zap.Logger) (AuditRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for AuditRepository")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &firestoreAuditRepository{client: client, logger: logger}, nil
}

// Create adds a new audit document with an auto-generated ID.
func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	docRef := r.client.Collection(auditLogsCollection).NewDoc()
	if _, err := docRef.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", classify(err))
	}
	return nil
}

// ListByUserID requires a composite index on (userId, timestamp desc).
func (r *firestoreAuditRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for ListByUserID operation")
	}
	query := r.client.Collection(auditLogsCollection).
		Where("userId", "==", userID).
		OrderBy("timestamp", firestore.Desc).
		Limit(normalizeLimit(limit))

	iter := query.Documents(ctx)
	defer iter.Stop()

	logs := []models.AuditLog{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate audit logs for user '%s': %w", userID, classify(err))
		}

		var entry models.AuditLog
		if err := doc.DataTo(&entry); err != nil {
			r.logger.Warn("Skipping undecodable audit log", zap.String("doc_id", doc.Ref.ID), zap.Error(err))
			continue
		}
		entry.ID = doc.Ref.ID
		logs = append(logs, entry)
	}
	return logs, nil
}

// Close is a no-op: the Firestore client is owned by FirebaseClients.
func (r *firestoreAuditRepository) Close() error { return nil }

// classify maps gRPC status codes onto the package's sentinel errors.
func classify(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
