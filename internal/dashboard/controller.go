// Package dashboard binds the user's dashboard gestures to key registry operations,
// keeps the view-local state (dialogs, drafts, the one-time secret reveal) and fires
// the notification and audit side effects of every mutation.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"keyvault-backend-go/internal/clipboard"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/models"
	"keyvault-backend-go/internal/notify"
	"keyvault-backend-go/internal/registry"
)

// ErrClipboard is returned by Copy when the clipboard collaborator failed.
var ErrClipboard = errors.New("clipboard write failed")

// AuditLogger records audit entries. Failures never fail the gesture.
type AuditLogger interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}

// Effects carries the per-request collaborators of a gesture.
type Effects struct {
	Notifier  notify.Notifier
	Clipboard clipboard.Writer
	IPAddress string
	UserAgent string
}

// Controller is the dashboard of one mounted session.
type Controller struct {
	mu       sync.Mutex
	keys     *registry.Registry
	state    ViewState
	userID   string
	audit    AuditLogger
	messages *i18n.Catalog
	logger   *zap.Logger
}

// NewController creates a controller over keys for userID. audit may be nil.
func NewController(keys *registry.Registry, userID string, audit AuditLogger, messages *i18n.Catalog, logger *zap.Logger) *Controller {
	if messages == nil {
		messages = i18n.MustNew("en")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		keys:     keys,
		userID:   userID,
		audit:    audit,
		messages: messages,
		logger:   logger,
	}
}

// Registry exposes the session's key registry for read-only views.
func (c *Controller) Registry() *registry.Registry { return c.keys }

// State returns a copy of the current view state. The reveal is included but not consumed.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// OpenCreateDialog shows the create dialog. Any open rename dialog is replaced.
func (c *Controller) OpenCreateDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Dialog = DialogCreate
	c.state.RenameTarget = 0
	c.state.RenameDraft = ""
}

// OpenRenameDialog shows the rename dialog for key id, seeding the draft with its
// current name. Unknown ids return registry.ErrNotFound and leave the state alone.
func (c *Controller) OpenRenameDialog(id int64) error {
	key, ok := c.keys.Get(id)
	if !ok {
		return fmt.Errorf("open rename dialog for %d: %w", id, registry.ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Dialog = DialogRename
	c.state.RenameTarget = id
	c.state.RenameDraft = key.Name
	return nil
}

// CloseDialog dismisses whichever dialog is open and clears the rename target.
func (c *Controller) CloseDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Dialog = DialogNone
	c.state.RenameTarget = 0
	c.state.RenameDraft = ""
}

// Generate creates a key named name. On success the secret is staged for a one-time
// reveal, the draft is cleared and the create dialog closes.
func (c *Controller) Generate(ctx context.Context, fx Effects, name string) (models.CreatedKey, error) {
	created, err := c.keys.Create(name)
	if err != nil {
		c.mu.Lock()
		c.state.NewKeyDraft = name
		c.mu.Unlock()

		if errors.Is(err, registry.ErrEmptyName) {
			fx.Notifier.Error(c.messages.T(i18n.KeyNameRequired))
		} else {
			c.logger.Error("Failed to generate API key", zap.String("user_id", c.userID), zap.Error(err))
			fx.Notifier.Error(c.messages.T(i18n.MsgInternal))
		}
		return models.CreatedKey{}, err
	}

	c.mu.Lock()
	c.state.Reveal = &Reveal{KeyID: created.Record.ID, Name: created.Record.Name, Secret: created.Secret}
	c.state.NewKeyDraft = ""
	if c.state.Dialog == DialogCreate {
		c.state.Dialog = DialogNone
	}
	c.mu.Unlock()

	fx.Notifier.Success(c.messages.T(i18n.KeyGenerated, map[string]any{"Name": created.Record.Name}))
	c.record(ctx, fx, models.AuditActionKeyCreate, created.Record.ID, map[string]interface{}{
		"key_name":   created.Record.Name,
		"key_prefix": created.Record.Prefix,
	})
	return created, nil
}

// SubmitRename applies name to the key targeted by the open rename dialog.
// On failure the dialog stays open with name kept as the draft.
func (c *Controller) SubmitRename(ctx context.Context, fx Effects, name string) (models.KeyRecord, error) {
	c.mu.Lock()
	target := c.state.RenameTarget
	c.mu.Unlock()

	renamed, err := c.Rename(ctx, fx, target, name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.state.Dialog == DialogRename && c.state.RenameTarget == target {
			c.state.RenameDraft = name
		}
		return models.KeyRecord{}, err
	}
	if c.state.RenameTarget == target {
		c.state.Dialog = DialogNone
		c.state.RenameTarget = 0
		c.state.RenameDraft = ""
	}
	return renamed, nil
}

// Rename renames key id directly, without going through the rename dialog.
func (c *Controller) Rename(ctx context.Context, fx Effects, id int64, name string) (models.KeyRecord, error) {
	before, _ := c.keys.Get(id)
	renamed, err := c.keys.Rename(id, name)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			fx.Notifier.Error(c.messages.T(i18n.KeyNotFound))
		case errors.Is(err, registry.ErrEmptyName):
			fx.Notifier.Error(c.messages.T(i18n.KeyRenameEmpty))
		default:
			fx.Notifier.Error(c.messages.T(i18n.MsgInternal))
		}
		return models.KeyRecord{}, err
	}

	fx.Notifier.Success(c.messages.T(i18n.KeyRenamed))
	c.record(ctx, fx, models.AuditActionKeyRename, id, map[string]interface{}{
		"old_name": before.Name,
		"new_name": renamed.Name,
	})
	return renamed, nil
}

// Revoke marks key id as revoked. The confirmation is error-styled.
func (c *Controller) Revoke(ctx context.Context, fx Effects, id int64) (models.KeyRecord, error) {
	revoked, err := c.keys.Revoke(id)
	if err != nil {
		fx.Notifier.Error(c.messages.T(i18n.KeyNotFound))
		return models.KeyRecord{}, err
	}

	c.mu.Lock()
	if c.state.Reveal != nil && c.state.Reveal.KeyID == id {
		c.state.Reveal = nil
	}
	c.mu.Unlock()

	fx.Notifier.Error(c.messages.T(i18n.KeyRevoked))
	c.record(ctx, fx, models.AuditActionKeyRevoke, id, map[string]interface{}{
		"key_name": revoked.Name,
	})
	return revoked, nil
}

// Copy places the secret of key id on the clipboard. An unknown id is a silent
// no-op that returns registry.ErrNotFound without notifying. A clipboard failure
// is reported as an error notification and ErrClipboard.
func (c *Controller) Copy(ctx context.Context, fx Effects, id int64) error {
	secret, ok, err := c.keys.CopySecret(id)
	if !ok {
		return fmt.Errorf("copy %d: %w", id, registry.ErrNotFound)
	}
	if err != nil {
		c.logger.Error("Failed to open key secret", zap.Int64("key_id", id), zap.Error(err))
		fx.Notifier.Error(c.messages.T(i18n.KeyCopyFailed))
		return fmt.Errorf("%w: %v", ErrClipboard, err)
	}

	if err := fx.Clipboard.WriteText(ctx, secret); err != nil {
		c.logger.Warn("Clipboard write failed", zap.Int64("key_id", id), zap.Error(err))
		fx.Notifier.Error(c.messages.T(i18n.KeyCopyFailed))
		return fmt.Errorf("%w: %v", ErrClipboard, err)
	}

	fx.Notifier.Success(c.messages.T(i18n.KeyCopied))
	c.record(ctx, fx, models.AuditActionKeyCopy, id, nil)
	return nil
}

// TakeReveal returns the staged secret reveal exactly once.
func (c *Controller) TakeReveal() (Reveal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Reveal == nil {
		return Reveal{}, false
	}
	r := *c.state.Reveal
	c.state.Reveal = nil
	return r, true
}

func (c *Controller) record(ctx context.Context, fx Effects, action string, keyID int64, details map[string]interface{}) {
	if c.audit == nil {
		return
	}
	entry := models.AuditLog{
		Timestamp:  time.Now().UTC(),
		UserID:     c.userID,
		Action:     action,
		TargetType: models.AuditTargetKey,
		TargetID:   strconv.FormatInt(keyID, 10),
		IPAddress:  fx.IPAddress,
		UserAgent:  fx.UserAgent,
		Details:    details,
	}
	if err := c.audit.CreateAuditLog(ctx, entry); err != nil {
		c.logger.Warn("Failed to create audit log",
			zap.String("action", action),
			zap.Int64("key_id", keyID),
			zap.Error(err),
		)
	}
}
