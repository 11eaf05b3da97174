package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/clipboard"
	"keyvault-backend-go/internal/core"
	"keyvault-backend-go/internal/dashboard"
	"keyvault-backend-go/internal/docs"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/models"
	"keyvault-backend-go/internal/registry"
)

// PageHandler serves the server-rendered pages: landing, docs and the dashboard.
// Every dashboard gesture answers with the re-rendered dashboard.
type PageHandler struct {
	pages      *pageRenderer
	dashboards core.DashboardService
	clipboard  clipboard.Writer
	docs       docs.Page
	logger     *zap.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(pages *pageRenderer, ds core.DashboardService, cw clipboard.Writer, docsPage docs.Page, logger *zap.Logger) *PageHandler {
	return &PageHandler{pages: pages, dashboards: ds, clipboard: cw, docs: docsPage, logger: logger}
}

// Landing handles GET /
func (h *PageHandler) Landing(c *gin.Context) {
	h.pages.render(c, http.StatusOK, "landing.html", landingPage{pageChrome: h.pages.chrome(c, "API key management")})
}

// Docs handles GET /docs
func (h *PageHandler) Docs(c *gin.Context) {
	h.pages.render(c, http.StatusOK, "docs.html", docsPage{pageChrome: h.pages.chrome(c, h.docs.Title), Page: h.docs})
}

// Dashboard handles GET /dashboard. Every load mounts a fresh session, so a reload
// starts with an empty key list.
func (h *PageHandler) Dashboard(c *gin.Context) {
	profile, ok := viewer(c)
	if !ok {
		c.Redirect(http.StatusFound, "/sign-in")
		return
	}
	s, err := h.dashboards.Mount(c.Request.Context(), profile, clientInfo(c))
	if err != nil {
		h.logger.Error("Failed to mount dashboard", zap.String("user_id", profile.UID), zap.Error(err))
		c.String(http.StatusInternalServerError, h.pages.messages.T(i18n.MsgInternal))
		return
	}
	h.renderDashboard(c, http.StatusOK, s, nil)
}

// ShowDashboard handles GET /dashboard/:sessionId?q= and re-renders a mounted
// session without touching its keys.
func (h *PageHandler) ShowDashboard(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.renderDashboard(c, http.StatusOK, s, nil)
}

// GenerateKey handles POST /dashboard/:sessionId/keys
func (h *PageHandler) GenerateKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req models.CreateKeyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid form")
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	status := http.StatusOK
	if _, err := s.Controller.Generate(c.Request.Context(), ge.Effects, req.Name); err != nil && !errors.Is(err, registry.ErrEmptyName) {
		status = http.StatusInternalServerError
	}
	h.renderDashboard(c, status, s, ge)
}

// SetDialog handles POST /dashboard/:sessionId/dialog
func (h *PageHandler) SetDialog(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req models.DialogRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid form")
		return
	}
	dialog, valid := dashboard.ParseDialog(req.Dialog)
	if !valid {
		c.String(http.StatusBadRequest, "Unknown dialog %q", req.Dialog)
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	switch dialog {
	case dashboard.DialogCreate:
		s.Controller.OpenCreateDialog()
	case dashboard.DialogRename:
		if err := s.Controller.OpenRenameDialog(req.KeyID); err != nil {
			ge.Notifier.Error(h.pages.messages.T(i18n.KeyNotFound))
		}
	default:
		s.Controller.CloseDialog()
	}
	h.renderDashboard(c, http.StatusOK, s, ge)
}

// RenameKey handles POST /dashboard/:sessionId/keys/:keyId/rename. When the rename
// dialog targets the key, the dialog is submitted; otherwise the key is renamed directly.
func (h *PageHandler) RenameKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := parseKeyID(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid key ID")
		return
	}
	var req models.RenameKeyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid form")
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	state := s.Controller.State()
	if state.Dialog == dashboard.DialogRename && state.RenameTarget == id {
		_, _ = s.Controller.SubmitRename(c.Request.Context(), ge.Effects, req.Name)
	} else {
		_, _ = s.Controller.Rename(c.Request.Context(), ge.Effects, id, req.Name)
	}
	h.renderDashboard(c, http.StatusOK, s, ge)
}

// RevokeKey handles POST /dashboard/:sessionId/keys/:keyId/revoke
func (h *PageHandler) RevokeKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := parseKeyID(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid key ID")
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	_, _ = s.Controller.Revoke(c.Request.Context(), ge.Effects, id)
	h.renderDashboard(c, http.StatusOK, s, ge)
}

// CopyKey handles POST /dashboard/:sessionId/keys/:keyId/copy
func (h *PageHandler) CopyKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := parseKeyID(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid key ID")
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	// Unknown ids and clipboard failures are reported through the notifications.
	_ = s.Controller.Copy(c.Request.Context(), ge.Effects, id)
	h.renderDashboard(c, http.StatusOK, s, ge)
}

// session resolves :sessionId. An expired or foreign session sends the viewer to a
// freshly mounted dashboard.
func (h *PageHandler) session(c *gin.Context) (*core.DashboardSession, bool) {
	profile, ok := viewer(c)
	if !ok {
		c.Redirect(http.StatusFound, "/sign-in")
		return nil, false
	}
	s, err := h.dashboards.Session(c.Request.Context(), profile.UID, c.Param("sessionId"))
	if err != nil {
		if !errors.Is(err, core.ErrSessionNotFound) {
			h.logger.Error("Failed to load dashboard session", zap.String("user_id", profile.UID), zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return nil, false
	}
	return s, true
}

func (h *PageHandler) renderDashboard(c *gin.Context, status int, s *core.DashboardSession, ge *gestureEffects) {
	query := c.Query("q")
	page := dashboardPage{
		pageChrome: h.pages.chrome(c, "Dashboard"),
		SessionID:  s.ID,
		User:       s.Profile.User(),
		Query:      query,
		Keys:       newKeyResponses(s.Controller.Registry().Filter(query)),
		View:       s.Controller.State(),
	}
	if reveal, ok := s.Controller.TakeReveal(); ok {
		page.Reveal = &reveal
	}
	if ge != nil {
		page.Notifications = ge.notes.Drain()
		page.ClipboardText = ge.clipboardText()
	}
	h.pages.render(c, status, "dashboard.html", page)
}
