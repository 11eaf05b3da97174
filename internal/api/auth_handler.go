package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/identity"
	"keyvault-backend-go/internal/middleware"
)

// sessionCookieMaxAge matches the lifetime of a Firebase ID token.
const sessionCookieMaxAge = 3600

// AuthHandler handles the sign-in and sign-out pages. Tokens are not verified here:
// the identity resolver verifies the cookie on every following request.
type AuthHandler struct {
	pages        *pageRenderer
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookie should be true behind TLS.
func NewAuthHandler(pages *pageRenderer, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{pages: pages, secureCookie: secureCookie, logger: logger}
}

// SignInPage handles GET /sign-in
func (h *AuthHandler) SignInPage(c *gin.Context) {
	h.pages.render(c, http.StatusOK, "sign_in.html", signInPage{
		pageChrome:  h.pages.chrome(c, "Sign in"),
		RedirectURL: c.Query(middleware.RedirectParam),
	})
}

// SignIn handles POST /sign-in. It stores the identity token in the session cookie and
// sends the viewer back to the page that required sign-in.
func (h *AuthHandler) SignIn(c *gin.Context) {
	token := strings.TrimSpace(c.PostForm("idToken"))
	redirectURL := c.PostForm(middleware.RedirectParam)
	if token == "" {
		h.pages.render(c, http.StatusBadRequest, "sign_in.html", signInPage{
			pageChrome:  h.pages.chrome(c, "Sign in"),
			RedirectURL: redirectURL,
			Error:       "An identity token is required.",
		})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(identity.SessionCookieName, token, sessionCookieMaxAge, "/", "", h.secureCookie, true)
	h.logger.Debug("Session cookie set", zap.String("ip", c.ClientIP()))
	c.Redirect(http.StatusSeeOther, localRedirect(redirectURL, "/dashboard"))
}

// SignOut handles GET /sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(identity.SessionCookieName, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/")
}

// localRedirect returns target if it is a path on this site, fallback otherwise.
func localRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
