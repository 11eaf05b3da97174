package models

import "time"

// KeyStatus is the lifecycle state of an API key. The only transition is Active -> Revoked.
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "Active"
	KeyStatusRevoked KeyStatus = "Revoked"
)

// KeyRecord represents a single API key held in a dashboard session's registry.
// The secret itself is never serialized; only the masked Prefix is exposed.
type KeyRecord struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Prefix       string     `json:"prefix"`
	SealedSecret string     `json:"-"`
	Status       KeyStatus  `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
}

// IsActive reports whether the key has not been revoked.
func (k KeyRecord) IsActive() bool {
	return k.Status == KeyStatusActive
}

// CreatedKey is returned exactly once, when a key is generated.
// Secret holds the full plain-text key; it is not retrievable for display afterwards.
type CreatedKey struct {
	Record KeyRecord `json:"key"`
	Secret string    `json:"secret"`
}
