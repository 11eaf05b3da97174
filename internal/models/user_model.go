package models

// User is the profile of the signed-in user as reported by the identity provider.
// It is never stored by this service.
type User struct {
	ID          string `json:"id"` // identity provider UID
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}
