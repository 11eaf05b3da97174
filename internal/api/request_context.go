package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/clipboard"
	"keyvault-backend-go/internal/core"
	"keyvault-backend-go/internal/dashboard"
	"keyvault-backend-go/internal/identity"
	"keyvault-backend-go/internal/middleware"
	"keyvault-backend-go/internal/notify"
)

// viewer returns the identity resolved by the gate. Handlers behind the gate
// always see a signed-in viewer.
func viewer(c *gin.Context) (identity.Profile, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok || session.State() != identity.StateSignedIn {
		return identity.Profile{}, false
	}
	return session.Profile, true
}

func clientInfo(c *gin.Context) core.ClientInfo {
	return core.ClientInfo{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func parseKeyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("keyId"), 10, 64)
	return id, err == nil
}

// gestureEffects bundles the per-request collaborators of a dashboard gesture.
type gestureEffects struct {
	dashboard.Effects
	notes   *notify.Collector
	browser *clipboard.Browser
}

// newGestureEffects collects notifications for the response and mirrors them to the
// log. A nil system writer selects the browser clipboard.
func newGestureEffects(c *gin.Context, system clipboard.Writer, logger *zap.Logger, sessionID string) *gestureEffects {
	notes := notify.NewCollector()
	ge := &gestureEffects{notes: notes}

	writer := system
	if writer == nil {
		ge.browser = clipboard.NewBrowser()
		writer = ge.browser
	}
	ge.Effects = dashboard.Effects{
		Notifier:  notify.NewLogged(notes, logger, zap.String("user_id", c.GetString(middleware.UserIDKey)), zap.String("session_id", sessionID)),
		Clipboard: writer,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	return ge
}

// clipboardText returns what the browser should place on its clipboard, if anything.
func (ge *gestureEffects) clipboardText() string {
	if ge.browser == nil {
		return ""
	}
	text, _ := ge.browser.Take()
	return text
}
