package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
)

func TestStateAndDecide(t *testing.T) {
	p := Profile{UID: "u1", FullName: "Ada"}
	tests := []struct {
		name       string
		ctx        SessionContext
		state      State
		protected  Decision
		publicPage Decision
	}{
		{"unloaded", Unloaded(), StateUnloaded, Wait, Wait},
		{"unloaded ignores signed-in flag", SessionContext{SignedIn: true}, StateUnloaded, Wait, Wait},
		{"signed out", SignedOut(), StateSignedOut, Redirect, Render},
		{"signed in", SignedInAs(p), StateSignedIn, Render, Redirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.State(); got != tt.state {
				t.Errorf("State = %v, want %v", got, tt.state)
			}
			if got := Decide(tt.ctx); got != tt.protected {
				t.Errorf("Decide = %v, want %v", got, tt.protected)
			}
			if got := DecidePublic(tt.ctx); got != tt.publicPage {
				t.Errorf("DecidePublic = %v, want %v", got, tt.publicPage)
			}
		})
	}
}

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid token")
}

func TestFirebaseAuthenticator(t *testing.T) {
	a := NewFirebaseAuthenticator(fakeVerifier{tokens: map[string]*auth.Token{
		"good": {UID: "uid-1", Claims: map[string]interface{}{"name": "Ada Lovelace", "email": "ada@example.com"}},
	}}, nil)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		state  State
		wantID string
	}{
		{"no credentials", func(r *http.Request) {}, StateSignedOut, ""},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, StateSignedIn, "uid-1"},
		{"lowercase bearer", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, StateSignedIn, "uid-1"},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "good") }, StateSignedOut, ""},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, StateSignedOut, ""},
		{"session cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"}) }, StateSignedIn, "uid-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			tt.setup(r)
			ctx := a.Resolve(r)
			if ctx.State() != tt.state {
				t.Fatalf("state = %v, want %v", ctx.State(), tt.state)
			}
			if ctx.Profile.UID != tt.wantID {
				t.Fatalf("uid = %q, want %q", ctx.Profile.UID, tt.wantID)
			}
			if tt.wantID != "" && (ctx.Profile.FullName != "Ada Lovelace" || ctx.Profile.Email != "ada@example.com") {
				t.Fatalf("profile = %+v", ctx.Profile)
			}
		})
	}
}

func TestLazyResolver(t *testing.T) {
	l := NewLazyResolver()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	if l.Ready() || l.Resolve(r).State() != StateUnloaded {
		t.Fatal("lazy resolver should start unloaded")
	}

	l.Install(StaticAuthenticator{Profile: Profile{UID: "dev"}})
	ctx := l.Resolve(r)
	if !l.Ready() || ctx.State() != StateSignedIn || ctx.Profile.UID != "dev" {
		t.Fatalf("after install: ready=%v ctx=%+v", l.Ready(), ctx)
	}
}

func TestProfileUser(t *testing.T) {
	u := Profile{UID: "u", FullName: "N", Email: "e", PhotoURL: "p"}.User()
	if u.ID != "u" || u.DisplayName != "N" || u.Email != "e" || u.PhotoURL != "p" {
		t.Fatalf("User() = %+v", u)
	}
}
