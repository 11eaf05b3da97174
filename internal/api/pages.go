package api

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/dashboard"
	"keyvault-backend-go/internal/docs"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/models"
	"keyvault-backend-go/internal/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04") },
}

// loadTemplates parses the embedded page templates.
func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return tmpl, nil
}

// pageChrome is what the shared header and footer need.
type pageChrome struct {
	Title    string
	Lang     string
	SignedIn bool
}

type landingPage struct {
	pageChrome
}

type signInPage struct {
	pageChrome
	RedirectURL string
	Error       string
}

type docsPage struct {
	pageChrome
	Page docs.Page
}

type dashboardPage struct {
	pageChrome
	SessionID     string
	User          models.User
	Query         string
	Keys          []KeyResponse
	View          dashboard.ViewState
	Reveal        *dashboard.Reveal
	Notifications []notify.Notification
	ClipboardText string
}

// pageRenderer renders the embedded templates through gin.
type pageRenderer struct {
	messages *i18n.Catalog
	logger   *zap.Logger
}

func (p *pageRenderer) chrome(c *gin.Context, title string) pageChrome {
	_, signedIn := viewer(c)
	return pageChrome{Title: title, Lang: p.messages.Lang(), SignedIn: signedIn}
}

func (p *pageRenderer) render(c *gin.Context, status int, name string, data any) {
	c.HTML(status, name, data)
	if err := c.Errors.Last(); err != nil {
		p.logger.Error("Failed to render page", zap.String("template", name), zap.Error(err.Err))
	}
}
