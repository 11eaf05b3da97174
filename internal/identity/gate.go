// Package identity models what the service knows about the viewer: an explicit
// session context resolved from the external identity provider, and the gate
// decision that follows from it.
package identity

import "keyvault-backend-go/internal/models"

// Profile is the part of the identity provider's user record the dashboard shows.
type Profile struct {
	UID      string
	FullName string
	Email    string
	PhotoURL string
}

// User converts the profile to its API representation.
func (p Profile) User() models.User {
	return models.User{ID: p.UID, Email: p.Email, DisplayName: p.FullName, PhotoURL: p.PhotoURL}
}

// SessionContext is passed down explicitly from the composition root instead of
// being read from ambient state.
type SessionContext struct {
	Loaded   bool
	SignedIn bool
	Profile  Profile
}

// Unloaded is the context reported before the identity provider has resolved.
func Unloaded() SessionContext { return SessionContext{} }

// SignedOut is the context of a resolved, anonymous viewer.
func SignedOut() SessionContext { return SessionContext{Loaded: true} }

// SignedInAs is the context of a resolved, authenticated viewer.
func SignedInAs(p Profile) SessionContext {
	return SessionContext{Loaded: true, SignedIn: true, Profile: p}
}

// State is the gate's view of a SessionContext.
type State int

const (
	StateUnloaded State = iota
	StateSignedIn
	StateSignedOut
)

func (s State) String() string {
	switch s {
	case StateSignedIn:
		return "signed-in"
	case StateSignedOut:
		return "signed-out"
	default:
		return "unloaded"
	}
}

// State collapses the loaded/signed-in pair. SignedIn is ignored until Loaded is true.
func (c SessionContext) State() State {
	switch {
	case !c.Loaded:
		return StateUnloaded
	case c.SignedIn:
		return StateSignedIn
	default:
		return StateSignedOut
	}
}

// Decision is what a gate does with a request.
type Decision int

const (
	// Wait renders nothing: the identity provider has not resolved yet.
	Wait Decision = iota
	// Render lets the protected content through.
	Render
	// Redirect sends the viewer elsewhere once, rendering nothing.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "wait"
	}
}

// Decide is the gate for protected views: only signed-in viewers see content,
// signed-out viewers are redirected to sign in.
func Decide(c SessionContext) Decision {
	switch c.State() {
	case StateSignedIn:
		return Render
	case StateSignedOut:
		return Redirect
	default:
		return Wait
	}
}

// DecidePublic is the inverse gate used by the landing page: signed-in viewers are
// redirected to the dashboard and only signed-out viewers see the page.
func DecidePublic(c SessionContext) Decision {
	switch c.State() {
	case StateSignedIn:
		return Redirect
	case StateSignedOut:
		return Render
	default:
		return Wait
	}
}
