package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/identity"
)

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors the one in internal/api/dto_models.go to avoid import cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const (
	sessionContextKey = "identitySession"
	// UserIDKey holds the signed-in user's UID on the gin context.
	UserIDKey = "userID"
	// RedirectParam carries the originally requested path to the sign-in page.
	RedirectParam = "redirect_url"
)

// IdentityGate decides, per request, whether protected content may be served.
type IdentityGate struct {
	resolver     identity.Resolver
	signInURL    string
	formFallback string
	logger       *zap.Logger
}

// GateOption configures an IdentityGate.
type GateOption func(*IdentityGate)

// WithFormFallback sets where a viewer returns after signing in when the gated
// request was not a GET, such as a form post that cannot be replayed. Defaults to "/".
func WithFormFallback(path string) GateOption {
	return func(g *IdentityGate) { g.formFallback = path }
}

// NewIdentityGate creates an IdentityGate. It panics if resolver is nil, as this is
// a critical setup dependency.
func NewIdentityGate(resolver identity.Resolver, signInURL string, logger *zap.Logger, opts ...GateOption) *IdentityGate {
	if resolver == nil {
		panic("identity resolver is not initialized for IdentityGate")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &IdentityGate{resolver: resolver, signInURL: signInURL, formFallback: "/", logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve attaches the viewer's session context to every request without gating.
func (g *IdentityGate) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.attach(c)
		c.Next()
	}
}

// Pages gates server-rendered pages. While the identity provider is loading the
// response is an empty 204; a signed-out viewer gets one redirect to sign in.
func (g *IdentityGate) Pages() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := g.attach(c)
		switch identity.Decide(session) {
		case identity.Render:
			c.Next()
		case identity.Redirect:
			g.redirectToSignIn(c)
		default:
			c.AbortWithStatus(http.StatusNoContent)
		}
	}
}

// API gates JSON endpoints: 503 with Retry-After while loading, 401 when signed out.
func (g *IdentityGate) API() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := g.attach(c)
		switch identity.Decide(session) {
		case identity.Render:
			c.Next()
		case identity.Redirect:
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		default:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Identity provider is still loading"})
		}
	}
}

// PublicOnly is the inverse gate for pages meant for signed-out visitors:
// signed-in viewers are redirected to redirectTo.
func (g *IdentityGate) PublicOnly(redirectTo string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := g.attach(c)
		switch identity.DecidePublic(session) {
		case identity.Render:
			c.Next()
		case identity.Redirect:
			c.Redirect(http.StatusFound, redirectTo)
			c.Abort()
		default:
			c.AbortWithStatus(http.StatusNoContent)
		}
	}
}

func (g *IdentityGate) redirectToSignIn(c *gin.Context) {
	method := c.Request.Method
	if method == http.MethodGet || method == http.MethodHead {
		c.Redirect(http.StatusFound, g.SignInRedirect(c.Request.URL.RequestURI()))
	} else {
		c.Redirect(http.StatusSeeOther, g.SignInRedirect(g.formFallback))
	}
	c.Abort()
}

// SignInRedirect builds the sign-in URL that returns the viewer to requestURI.
func (g *IdentityGate) SignInRedirect(requestURI string) string {
	u, err := url.Parse(g.signInURL)
	if err != nil {
		g.logger.Error("Invalid sign-in URL", zap.String("sign_in_url", g.signInURL), zap.Error(err))
		return g.signInURL
	}
	q := u.Query()
	q.Set(RedirectParam, requestURI)
	u.RawQuery = q.Encode()
	return u.String()
}

func (g *IdentityGate) attach(c *gin.Context) identity.SessionContext {
	if existing, ok := SessionFromContext(c); ok {
		return existing
	}
	session := g.resolver.Resolve(c.Request)
	c.Set(sessionContextKey, session)
	if session.State() == identity.StateSignedIn {
		c.Set(UserIDKey, session.Profile.UID)
	}
	return session
}

// SessionFromContext returns the session context attached by the gate.
func SessionFromContext(c *gin.Context) (identity.SessionContext, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return identity.SessionContext{}, false
	}
	session, ok := v.(identity.SessionContext)
	return session, ok
}
