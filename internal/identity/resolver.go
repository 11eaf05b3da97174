package identity

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie holding the identity provider's ID token for page requests.
const SessionCookieName = "__session"

// Resolver turns an incoming request into a SessionContext.
type Resolver interface {
	Resolve(r *http.Request) SessionContext
}

// TokenVerifier is the subset of the Firebase Auth client used to verify ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthenticator resolves viewers by verifying Firebase ID tokens.
type FirebaseAuthenticator struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewFirebaseAuthenticator creates a FirebaseAuthenticator. It panics on a nil verifier,
// which is a setup error.
func NewFirebaseAuthenticator(verifier TokenVerifier, logger *zap.Logger) *FirebaseAuthenticator {
	if verifier == nil {
		panic("identity: Firebase token verifier is not initialized")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseAuthenticator{verifier: verifier, logger: logger}
}

// Resolve verifies the bearer token or session cookie. A missing or invalid
// token resolves to a signed-out viewer.
func (a *FirebaseAuthenticator) Resolve(r *http.Request) SessionContext {
	idToken := tokenFromRequest(r)
	if idToken == "" {
		return SignedOut()
	}

	token, err := a.verifier.VerifyIDToken(r.Context(), idToken)
	if err != nil {
		// Details stay server-side.
		a.logger.Debug("ID token verification failed", zap.Error(err), zap.String("path", r.URL.Path))
		return SignedOut()
	}

	p := Profile{UID: token.UID}
	if name, ok := token.Claims["name"].(string); ok {
		p.FullName = name
	}
	if email, ok := token.Claims["email"].(string); ok {
		p.Email = email
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		p.PhotoURL = picture
	}
	return SignedInAs(p)
}

// tokenFromRequest prefers the Authorization header and falls back to the session cookie.
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return parts[1]
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// StaticAuthenticator signs every viewer in as one fixed profile. Development only.
type StaticAuthenticator struct {
	Profile Profile
}

// Resolve always reports the configured profile as signed in.
func (a StaticAuthenticator) Resolve(*http.Request) SessionContext {
	return SignedInAs(a.Profile)
}

// LazyResolver reports every viewer as unloaded until a delegate is installed,
// which lets the server start before the identity provider is ready.
type LazyResolver struct {
	delegate atomic.Pointer[resolverHolder]
}

type resolverHolder struct{ Resolver }

// NewLazyResolver returns a resolver with no delegate installed.
func NewLazyResolver() *LazyResolver {
	return &LazyResolver{}
}

// Install sets the delegate. Requests resolved afterwards are answered by it.
func (l *LazyResolver) Install(r Resolver) {
	l.delegate.Store(&resolverHolder{r})
}

// Ready reports whether a delegate has been installed.
func (l *LazyResolver) Ready() bool {
	return l.delegate.Load() != nil
}

// Resolve delegates, or returns Unloaded while no delegate is installed.
func (l *LazyResolver) Resolve(r *http.Request) SessionContext {
	h := l.delegate.Load()
	if h == nil {
		return Unloaded()
	}
	return h.Resolve(r)
}
