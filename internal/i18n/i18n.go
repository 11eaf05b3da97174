// Package i18n provides the message catalog for notifications and error messages.
// Translations are embedded YAML files loaded into a go-i18n bundle.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Message IDs used across the service.
const (
	KeyGenerated       = "key.generated"
	KeyNameRequired    = "key.name_required"
	KeyCopied          = "key.copied"
	KeyCopyFailed      = "key.copy_failed"
	KeyRenamed         = "key.renamed"
	KeyRenameEmpty     = "key.rename_empty"
	KeyRevoked         = "key.revoked"
	KeyNotFound        = "key.not_found"
	SessionNotFound    = "session.not_found"
	MsgInternal        = "error.internal"
	MsgUnauthenticated = "error.unauthenticated"
	MsgIdentityLoading = "error.identity_loading"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog translates message IDs into one language.
type Catalog struct {
	lang      string
	localizer *i18n.Localizer
}

// New loads every embedded locale and returns a Catalog for lang. Unknown
// languages fall back to English.
func New(lang string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", f.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", f.Name(), err)
		}
	}

	if lang == "" {
		lang = "en"
	}
	return &Catalog{lang: lang, localizer: i18n.NewLocalizer(bundle, lang, "en")}, nil
}

// MustNew is New for static setup paths and tests.
func MustNew(lang string) *Catalog {
	c, err := New(lang)
	if err != nil {
		panic(err)
	}
	return c
}

// Lang reports the language the catalog was created for.
func (c *Catalog) Lang() string { return c.lang }

// T translates messageID. data fills template fields such as {{.Name}}.
// If the message ID is unknown the ID itself is returned.
func (c *Catalog) T(messageID string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	msg, err := c.localizer.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
