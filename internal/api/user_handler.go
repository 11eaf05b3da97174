package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/core"
	"keyvault-backend-go/internal/db"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/models"
)

// UserHandler handles endpoints about the signed-in user.
type UserHandler struct {
	auditService core.AuditService
	messages     *i18n.Catalog
	logger       *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(as core.AuditService, messages *i18n.Catalog, logger *zap.Logger) *UserHandler {
	return &UserHandler{auditService: as, messages: messages, logger: logger}
}

// GetCurrentUserProfile handles the GET /api/v1/me endpoint.
// The profile comes from the identity provider; nothing is stored.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	profile, ok := viewer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: h.messages.T(i18n.MsgUnauthenticated)})
		return
	}
	c.JSON(http.StatusOK, profile.User())
}

// ListAuditLogs handles GET /api/v1/audit?limit=
func (h *UserHandler) ListAuditLogs(c *gin.Context) {
	profile, ok := viewer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: h.messages.T(i18n.MsgUnauthenticated)})
		return
	}

	limit := db.DefaultAuditListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit", Details: raw})
			return
		}
		limit = n
	}

	entries, err := h.auditService.ListByUser(c.Request.Context(), profile.UID, limit)
	if err != nil {
		if errors.Is(err, core.ErrAuditUnavailable) {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: core.ErrAuditUnavailable.Error()})
			return
		}
		h.logger.Error("Failed to list audit logs", zap.String("user_id", profile.UID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: h.messages.T(i18n.MsgInternal)})
		return
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	c.JSON(http.StatusOK, AuditListResponse{Entries: entries})
}
