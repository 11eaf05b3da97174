package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"keyvault-backend-go/internal/config"
	"keyvault-backend-go/internal/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedResolver identity.SessionContext

func (f fixedResolver) Resolve(*http.Request) identity.SessionContext {
	return identity.SessionContext(f)
}

var (
	unloaded  = fixedResolver(identity.Unloaded())
	signedOut = fixedResolver(identity.SignedOut())
	signedIn  = fixedResolver(identity.SignedInAs(identity.Profile{UID: "u1", FullName: "Ada"}))
)

func serve(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func gatedEngine(resolver identity.Resolver) *gin.Engine {
	gate := NewIdentityGate(resolver, "/sign-in", nil)
	r := gin.New()
	r.GET("/dashboard", gate.Pages(), func(c *gin.Context) {
		c.String(http.StatusOK, "protected:"+c.GetString(UserIDKey))
	})
	r.GET("/api/v1/me", gate.API(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(UserIDKey)})
	})
	r.GET("/", gate.PublicOnly("/dashboard"), func(c *gin.Context) {
		c.String(http.StatusOK, "landing")
	})
	return r
}

func TestPagesGate(t *testing.T) {
	tests := []struct {
		name     string
		resolver identity.Resolver
		status   int
		body     string
		location string
	}{
		{"unloaded renders nothing", unloaded, http.StatusNoContent, "", ""},
		{"signed out redirects", signedOut, http.StatusFound, "", "/sign-in?redirect_url=%2Fdashboard%3Ftab%3Dkeys"},
		{"signed in renders", signedIn, http.StatusOK, "protected:u1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(gatedEngine(tt.resolver), http.MethodGet, "/dashboard?tab=keys")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status != http.StatusFound && w.Body.String() != tt.body {
				t.Fatalf("body = %q, want %q", w.Body.String(), tt.body)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Fatalf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestAPIGate(t *testing.T) {
	w := serve(gatedEngine(unloaded), http.MethodGet, "/api/v1/me")
	if w.Code != http.StatusServiceUnavailable || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("unloaded: status=%d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}

	w = serve(gatedEngine(signedOut), http.MethodGet, "/api/v1/me")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("signed out: status=%d", w.Code)
	}

	w = serve(gatedEngine(signedIn), http.MethodGet, "/api/v1/me")
	if w.Code != http.StatusOK || w.Body.String() != `{"uid":"u1"}` {
		t.Fatalf("signed in: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestPublicOnlyGate(t *testing.T) {
	if w := serve(gatedEngine(signedIn), http.MethodGet, "/"); w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("signed in: status=%d location=%q", w.Code, w.Header().Get("Location"))
	}
	if w := serve(gatedEngine(signedOut), http.MethodGet, "/"); w.Code != http.StatusOK || w.Body.String() != "landing" {
		t.Fatalf("signed out: status=%d body=%q", w.Code, w.Body.String())
	}
	if w := serve(gatedEngine(unloaded), http.MethodGet, "/"); w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("unloaded: status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestPagesGateFormPostFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		opts     []GateOption
		location string
	}{
		{"default fallback", nil, "/sign-in?redirect_url=%2F"},
		{"configured fallback", []GateOption{WithFormFallback("/dashboard")}, "/sign-in?redirect_url=%2Fdashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewIdentityGate(signedOut, "/sign-in", nil, tt.opts...)
			r := gin.New()
			r.POST("/dashboard/:sessionId/keys", gate.Pages(), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := serve(r, http.MethodPost, "/dashboard/abc/keys")
			if w.Code != http.StatusSeeOther || w.Header().Get("Location") != tt.location {
				t.Fatalf("status=%d location=%q, want 303 %q", w.Code, w.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestSignInRedirectKeepsExistingQuery(t *testing.T) {
	gate := NewIdentityGate(signedOut, "https://auth.example.com/login?app=kv", nil)
	u, err := url.Parse(gate.SignInRedirect("/docs"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "auth.example.com" || u.Query().Get("app") != "kv" || u.Query().Get(RedirectParam) != "/docs" {
		t.Fatalf("redirect = %s", u)
	}
}

func TestSessionFromContext(t *testing.T) {
	gate := NewIdentityGate(signedIn, "/sign-in", nil)
	r := gin.New()
	var got identity.SessionContext
	r.GET("/", gate.Resolve(), func(c *gin.Context) {
		got, _ = SessionFromContext(c)
		c.Status(http.StatusOK)
	})
	serve(r, http.MethodGet, "/")
	if got.Profile.UID != "u1" || got.State() != identity.StateSignedIn {
		t.Fatalf("session = %+v", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.New(core)))
	r.GET("/api/v1/boom", func(*gin.Context) { panic("boom") })
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/api/v1/boom")
	if w.Code != http.StatusInternalServerError || w.Body.String() != `{"error":"Internal Server Error"}` {
		t.Fatalf("api: status=%d body=%s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodGet, "/boom")
	if w.Code != http.StatusInternalServerError || w.Body.String() != "Internal Server Error" {
		t.Fatalf("page: status=%d body=%s", w.Code, w.Body.String())
	}
	if logs.Len() != 2 {
		t.Fatalf("logged %d panics, want 2", logs.Len())
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gate := NewIdentityGate(signedIn, "/sign-in", nil)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/dashboard", gate.Pages(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(r, http.MethodGet, "/dashboard?x=1")
	serve(r, http.MethodGet, "/missing")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	first := entries[0].ContextMap()
	if entries[0].Level != zapcore.InfoLevel || first["user_id"] != "u1" || first["query"] != "x=1" {
		t.Fatalf("first entry = %v %v", entries[0].Level, first)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("404 logged at %v", entries[1].Level)
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &config.Config{ClientURL: " https://a.example.com/, ,https://b.example.com"}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if got := AllowedOrigins(cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("AllowedOrigins = %v", got)
	}
	if AllowedOrigins(&config.Config{}) != nil {
		t.Fatal("empty CLIENT_URL should yield no origins")
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(&config.Config{ClientURL: "https://app.example.com"}))
	r.GET("/api/v1/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}
}
