package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"keyvault-backend-go/internal/crypto"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeStatic   = "static"

	ClipboardModeBrowser = "browser"
	ClipboardModeSystem  = "system"

	AuditBackendMemory    = "memory"
	AuditBackendSQLite    = "sqlite"
	AuditBackendFirestore = "firestore"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string        `mapstructure:"PORT"`
	GinMode                          string        `mapstructure:"GIN_MODE"`
	ClientURL                        string        `mapstructure:"CLIENT_URL"`
	AuthMode                         string        `mapstructure:"AUTH_MODE"`
	FirebaseProjectID                string        `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string        `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	StaticUserID                     string        `mapstructure:"STATIC_USER_ID"`
	StaticUserName                   string        `mapstructure:"STATIC_USER_NAME"`
	StaticUserEmail                  string        `mapstructure:"STATIC_USER_EMAIL"`
	EncryptionKey                    string        `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded, optional
	SignInURL                        string        `mapstructure:"SIGN_IN_URL"`
	ClipboardMode                    string        `mapstructure:"CLIPBOARD_MODE"`
	AuditBackend                     string        `mapstructure:"AUDIT_BACKEND"`
	AuditSQLiteDSN                   string        `mapstructure:"AUDIT_SQLITE_DSN"`
	SessionIdleTimeout               time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	Language                         string        `mapstructure:"LANGUAGE"`
}

var appConfig *Config

var envKeys = []string{
	"PORT",
	"GIN_MODE",
	"CLIENT_URL",
	"AUTH_MODE",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"STATIC_USER_ID",
	"STATIC_USER_NAME",
	"STATIC_USER_EMAIL",
	"ENCRYPTION_KEY",
	"SIGN_IN_URL",
	"CLIPBOARD_MODE",
	"AUDIT_BACKEND",
	"AUDIT_SQLITE_DSN",
	"SESSION_IDLE_TIMEOUT",
	"LANGUAGE",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("AUTH_MODE", AuthModeFirebase)
	v.SetDefault("STATIC_USER_ID", "dev-user")
	v.SetDefault("STATIC_USER_NAME", "Developer")
	v.SetDefault("STATIC_USER_EMAIL", "dev@localhost")
	v.SetDefault("SIGN_IN_URL", "/sign-in")
	v.SetDefault("CLIPBOARD_MODE", ClipboardModeBrowser)
	v.SetDefault("AUDIT_BACKEND", AuditBackendMemory)
	v.SetDefault("AUDIT_SQLITE_DSN", "keyvault_audit.db")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("LANGUAGE", "en")

	// Bind environment variables
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appConfig = &cfg
	return appConfig, nil
}

// Validate checks the combination of settings. Any error aborts startup.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeFirebase:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required when AUTH_MODE=firebase")
		}
	case AuthModeStatic:
		if c.GinMode == "release" {
			return errors.New("AUTH_MODE=static is not allowed when GIN_MODE=release")
		}
		if c.StaticUserID == "" {
			return errors.New("STATIC_USER_ID is required when AUTH_MODE=static")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeFirebase, AuthModeStatic, c.AuthMode)
	}

	switch c.ClipboardMode {
	case ClipboardModeBrowser, ClipboardModeSystem:
	default:
		return fmt.Errorf("CLIPBOARD_MODE must be %q or %q, got %q", ClipboardModeBrowser, ClipboardModeSystem, c.ClipboardMode)
	}

	switch c.AuditBackend {
	case AuditBackendMemory:
	case AuditBackendSQLite:
		if c.AuditSQLiteDSN == "" {
			return errors.New("AUDIT_SQLITE_DSN is required when AUDIT_BACKEND=sqlite")
		}
	case AuditBackendFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required when AUDIT_BACKEND=firestore")
		}
	default:
		return fmt.Errorf("AUDIT_BACKEND must be one of memory, sqlite, firestore, got %q", c.AuditBackend)
	}

	if c.EncryptionKey != "" {
		if _, err := crypto.ParseKey(c.EncryptionKey); err != nil {
			return fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
	}
	if c.SessionIdleTimeout <= 0 {
		return errors.New("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.SignInURL == "" {
		return errors.New("SIGN_IN_URL is required")
	}
	return nil
}

// UsesFirebase reports whether any component needs the Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.AuthMode == AuthModeFirebase || c.AuditBackend == AuditBackendFirestore
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}
