package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"keyvault-backend-go/internal/models"
)

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp,notnull"`
	UserID        string    `bun:"user_id,notnull"`
	Action        string    `bun:"action,notnull"`
	TargetType    string    `bun:"target_type"`
	TargetID      string    `bun:"target_id"`
	IPAddress     string    `bun:"ip_address"`
	UserAgent     string    `bun:"user_agent"`
	Details       string    `bun:"details"` // JSON object
}

// sqliteAuditRepository implements AuditRepository on SQLite through Bun.
type sqliteAuditRepository struct {
	sqlDB  *sql.DB
	bun    *bun.DB
	logger *zap.Logger
}

// NewSQLiteAuditRepository opens dsn with the pure Go SQLite driver and creates the
// audit_log table if it does not exist.
func NewSQLiteAuditRepository(ctx context.Context, dsn string, logger *zap.Logger) (AuditRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// An in-memory database exists per connection, so keep exactly one.
	if dsn == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	bdb := bun.NewDB(sqlDB, sqlitedialect.New())
	if _, err := bdb.NewCreateTable().Model((*AuditLogModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create audit_log table: %w", err)
	}
	if _, err := bdb.NewCreateIndex().
		Model((*AuditLogModel)(nil)).
		Index("idx_audit_log_user_ts").
		IfNotExists().
		Column("user_id", "timestamp").
		Exec(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create audit_log index: %w", err)
	}

	logger.Info("SQLite audit store ready", zap.String("dsn", dsn))
	return &sqliteAuditRepository{sqlDB: sqlDB, bun: bdb, logger: logger}, nil
}

func (r *sqliteAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	details := ""
	if len(logEntry.Details) > 0 {
		b, err := json.Marshal(logEntry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(b)
	}
	ts := logEntry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	m := &AuditLogModel{
		Timestamp:  ts.UTC(),
		UserID:     logEntry.UserID,
		Action:     logEntry.Action,
		TargetType: logEntry.TargetType,
		TargetID:   logEntry.TargetID,
		IPAddress:  logEntry.IPAddress,
		UserAgent:  logEntry.UserAgent,
		Details:    details,
	}
	if _, err := r.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

func (r *sqliteAuditRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	var rows []AuditLogModel
	err := r.bun.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("timestamp DESC, id DESC").
		Limit(normalizeLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs for user '%s': %w", userID, err)
	}

	out := make([]models.AuditLog, 0, len(rows))
	for _, row := range rows {
		entry := models.AuditLog{
			ID:         fmt.Sprintf("%d", row.ID),
			Timestamp:  row.Timestamp,
			UserID:     row.UserID,
			Action:     row.Action,
			TargetType: row.TargetType,
			TargetID:   row.TargetID,
			IPAddress:  row.IPAddress,
			UserAgent:  row.UserAgent,
		}
		if row.Details != "" {
			if err := json.Unmarshal([]byte(row.Details), &entry.Details); err != nil {
				r.logger.Warn("Ignoring undecodable audit details", zap.Int64("id", row.ID), zap.Error(err))
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *sqliteAuditRepository) Close() error {
	return r.bun.Close()
}
