package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/clipboard"
	"keyvault-backend-go/internal/core"
	"keyvault-backend-go/internal/dashboard"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/models"
	"keyvault-backend-go/internal/registry"
)

// KeyHandler handles the JSON API for dashboard sessions and their keys.
type KeyHandler struct {
	dashboards core.DashboardService
	clipboard  clipboard.Writer // nil selects the browser clipboard
	messages   *i18n.Catalog
	logger     *zap.Logger
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(ds core.DashboardService, cw clipboard.Writer, messages *i18n.Catalog, logger *zap.Logger) *KeyHandler {
	return &KeyHandler{dashboards: ds, clipboard: cw, messages: messages, logger: logger}
}

// mapKeyErrorToStatus maps errors from the dashboard and registry to HTTP status codes and ErrorResponse.
func (h *KeyHandler) mapKeyErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, registry.ErrEmptyName):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: registry.ErrEmptyName.Error()}
	case errors.Is(err, registry.ErrNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: registry.ErrNotFound.Error()}
	case errors.Is(err, core.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrSessionNotFound.Error(), Details: h.messages.T(i18n.SessionNotFound)}
	default:
		h.logger.Error("Internal Server Error", zap.String("path", c.FullPath()), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: h.messages.T(i18n.MsgInternal)}
	}
	c.JSON(statusCode, errResponse)
}

// session resolves :sessionId for the signed-in user, writing the error response itself.
func (h *KeyHandler) session(c *gin.Context) (*core.DashboardSession, bool) {
	profile, ok := viewer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: h.messages.T(i18n.MsgUnauthenticated)})
		return nil, false
	}
	s, err := h.dashboards.Session(c.Request.Context(), profile.UID, c.Param("sessionId"))
	if err != nil {
		h.mapKeyErrorToStatus(c, err)
		return nil, false
	}
	return s, true
}

func (h *KeyHandler) keyID(c *gin.Context) (int64, bool) {
	id, ok := parseKeyID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid key ID", Details: c.Param("keyId")})
	}
	return id, ok
}

// MountSession handles POST /sessions
func (h *KeyHandler) MountSession(c *gin.Context) {
	profile, ok := viewer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: h.messages.T(i18n.MsgUnauthenticated)})
		return
	}
	s, err := h.dashboards.Mount(c.Request.Context(), profile, clientInfo(c))
	if err != nil {
		h.mapKeyErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{
		SessionID: s.ID,
		MountedAt: s.MountedAt,
		User:      s.Profile.User(),
		View:      s.Controller.State(),
	})
}

// UnmountSession handles DELETE /sessions/:sessionId
func (h *KeyHandler) UnmountSession(c *gin.Context) {
	profile, ok := viewer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: h.messages.T(i18n.MsgUnauthenticated)})
		return
	}
	if err := h.dashboards.Unmount(c.Request.Context(), profile.UID, c.Param("sessionId"), clientInfo(c)); err != nil {
		h.mapKeyErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListKeys handles GET /sessions/:sessionId/keys?q=
func (h *KeyHandler) ListKeys(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	keys := s.Controller.Registry().Filter(c.Query("q"))
	c.JSON(http.StatusOK, KeyListResponse{Keys: newKeyResponses(keys), Total: s.Controller.Registry().Len()})
}

// CreateKey handles POST /sessions/:sessionId/keys
func (h *KeyHandler) CreateKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req models.CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	created, err := s.Controller.Generate(c.Request.Context(), ge.Effects, req.Name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, registry.ErrEmptyName) {
			status = http.StatusBadRequest
		}
		c.JSON(status, CreateKeyResponse{Notifications: ge.notes.Drain()})
		return
	}
	// The API response carries the secret, so the page reveal is not needed.
	s.Controller.TakeReveal()

	key := newKeyResponse(created.Record)
	c.JSON(http.StatusCreated, CreateKeyResponse{Key: &key, Secret: created.Secret, Notifications: ge.notes.Drain()})
}

// GetKey handles GET /sessions/:sessionId/keys/:keyId
func (h *KeyHandler) GetKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.keyID(c)
	if !ok {
		return
	}
	key, found := s.Controller.Registry().Get(id)
	if !found {
		h.mapKeyErrorToStatus(c, registry.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, newKeyResponse(key))
}

// RenameKey handles PATCH /sessions/:sessionId/keys/:keyId
func (h *KeyHandler) RenameKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.keyID(c)
	if !ok {
		return
	}
	var req models.RenameKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	renamed, err := s.Controller.Rename(c.Request.Context(), ge.Effects, id, req.Name)
	h.writeMutation(c, renamed, err, ge)
}

// RevokeKey handles POST /sessions/:sessionId/keys/:keyId/revoke
func (h *KeyHandler) RevokeKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.keyID(c)
	if !ok {
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	revoked, err := s.Controller.Revoke(c.Request.Context(), ge.Effects, id)
	h.writeMutation(c, revoked, err, ge)
}

// CopyKey handles POST /sessions/:sessionId/keys/:keyId/copy
// An unknown key answers 404 without notifications. A clipboard failure is not an
// HTTP error: the response says copied=false and carries the error notification.
func (h *KeyHandler) CopyKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.keyID(c)
	if !ok {
		return
	}

	ge := newGestureEffects(c, h.clipboard, h.logger, s.ID)
	err := s.Controller.Copy(c.Request.Context(), ge.Effects, id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, CopyKeyResponse{Copied: true, Text: ge.clipboardText(), Notifications: ge.notes.Drain()})
	case errors.Is(err, dashboard.ErrClipboard):
		c.JSON(http.StatusOK, CopyKeyResponse{Copied: false, Notifications: ge.notes.Drain()})
	default:
		h.mapKeyErrorToStatus(c, err)
	}
}

func (h *KeyHandler) writeMutation(c *gin.Context, key models.KeyRecord, err error, ge *gestureEffects) {
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, registry.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, registry.ErrEmptyName):
			status = http.StatusBadRequest
		default:
			h.logger.Error("Key mutation failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(status, KeyMutationResponse{Notifications: ge.notes.Drain()})
		return
	}
	resp := newKeyResponse(key)
	c.JSON(http.StatusOK, KeyMutationResponse{Key: &resp, Notifications: ge.notes.Drain()})
}
