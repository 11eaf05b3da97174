package api

import (
	"time"

	"keyvault-backend-go/internal/dashboard"
	"keyvault-backend-go/internal/models"
	"keyvault-backend-go/internal/notify"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// KeyResponse is the public shape of a key record. The secret is never included.
type KeyResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Prefix    string     `json:"prefix"`
	Status    string     `json:"status"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

func newKeyResponse(k models.KeyRecord) KeyResponse {
	return KeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Prefix:    k.Prefix,
		Status:    string(k.Status),
		Active:    k.IsActive(),
		CreatedAt: k.CreatedAt,
		RevokedAt: k.RevokedAt,
	}
}

func newKeyResponses(keys []models.KeyRecord) []KeyResponse {
	out := make([]KeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, newKeyResponse(k))
	}
	return out
}

// SessionResponse describes a mounted dashboard session.
type SessionResponse struct {
	SessionID string              `json:"sessionId"`
	MountedAt time.Time           `json:"mountedAt"`
	User      models.User         `json:"user"`
	View      dashboard.ViewState `json:"view"`
}

// KeyListResponse is returned by GET /sessions/:sessionId/keys.
type KeyListResponse struct {
	Keys  []KeyResponse `json:"keys"`
	Total int           `json:"total"`
}

// KeyMutationResponse is returned by rename and revoke. Key is omitted when the mutation failed.
type KeyMutationResponse struct {
	Key           *KeyResponse          `json:"key,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// CreateKeyResponse carries the full secret. It is the only response that ever does.
type CreateKeyResponse struct {
	Key           *KeyResponse          `json:"key,omitempty"`
	Secret        string                `json:"secret,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// CopyKeyResponse is returned by the copy action. In browser clipboard mode Text holds
// the secret for the client to place on its clipboard.
type CopyKeyResponse struct {
	Copied        bool                  `json:"copied"`
	Text          string                `json:"text,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// AuditListResponse is returned by GET /audit.
type AuditListResponse struct {
	Entries []models.AuditLog `json:"entries"`
}
