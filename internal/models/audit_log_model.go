package models

import "time"

// Audit actions recorded for dashboard activity.
const (
	AuditActionKeyCreate      = "KEY_CREATE"
	AuditActionKeyRename      = "KEY_RENAME"
	AuditActionKeyRevoke      = "KEY_REVOKE"
	AuditActionKeyCopy        = "KEY_COPY"
	AuditActionSessionMount   = "SESSION_MOUNT"
	AuditActionSessionUnmount = "SESSION_UNMOUNT"

	AuditTargetKey     = "API_KEY"
	AuditTargetSession = "DASHBOARD_SESSION"
)

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp"`
	UserID     string                 `json:"userId" firestore:"userId"` // who performed the action
	Action     string                 `json:"action" firestore:"action"` // e.g. "KEY_CREATE", "KEY_REVOKE"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"`
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	IPAddress  string                 `json:"ipAddress,omitempty" firestore:"ipAddress,omitempty"`
	UserAgent  string                 `json:"userAgent,omitempty" firestore:"userAgent,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
