package models

// CreateKeyRequest represents the request body for generating a new API key.
// Name is validated by the registry (trimmed, non-empty), not by binding,
// so that an empty name surfaces as a notification rather than a bind error.
type CreateKeyRequest struct {
	Name string `json:"name" form:"name"`
}

// RenameKeyRequest represents the request body for renaming an existing API key.
type RenameKeyRequest struct {
	Name string `json:"name" form:"name"`
}

// DialogRequest opens or closes one of the dashboard dialogs.
// Dialog is "create", "rename" or "none"; KeyID is required for "rename".
type DialogRequest struct {
	Dialog string `json:"dialog" form:"dialog" binding:"required"`
	KeyID  int64  `json:"keyId,omitempty" form:"keyId"`
}
