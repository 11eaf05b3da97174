package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "static")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "debug" {
		t.Errorf("port/mode = %q/%q", cfg.Port, cfg.GinMode)
	}
	if cfg.SignInURL != "/sign-in" || cfg.ClipboardMode != ClipboardModeBrowser || cfg.AuditBackend != AuditBackendMemory {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("SessionIdleTimeout = %v", cfg.SessionIdleTimeout)
	}
	if cfg.StaticUserID != "dev-user" || cfg.Language != "en" {
		t.Errorf("static user/lang = %q/%q", cfg.StaticUserID, cfg.Language)
	}
	if GetConfig() != cfg {
		t.Error("GetConfig should return the loaded config")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "firebase")
	t.Setenv("FIREBASE_PROJECT_ID", "keyvault-test")
	t.Setenv("PORT", "9090")
	t.Setenv("AUDIT_BACKEND", "sqlite")
	t.Setenv("AUDIT_SQLITE_DSN", ":memory:")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("CLIPBOARD_MODE", "system")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.FirebaseProjectID != "keyvault-test" || cfg.AuditSQLiteDSN != ":memory:" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SessionIdleTimeout != 90*time.Second || cfg.ClipboardMode != ClipboardModeSystem {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.UsesFirebase() {
		t.Error("firebase auth mode should use Firebase")
	}
}

func TestStaticAuthWithFirestoreAudit(t *testing.T) {
	t.Setenv("AUTH_MODE", "static")
	t.Setenv("AUDIT_BACKEND", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "keyvault-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AuthMode != AuthModeStatic || !cfg.UsesFirebase() {
		t.Errorf("auth mode %q, UsesFirebase %v", cfg.AuthMode, cfg.UsesFirebase())
	}
}

func validConfig() Config {
	return Config{
		GinMode:            "debug",
		AuthMode:           AuthModeStatic,
		StaticUserID:       "dev",
		SignInURL:          "/sign-in",
		ClipboardMode:      ClipboardModeBrowser,
		AuditBackend:       AuditBackendMemory,
		SessionIdleTimeout: time.Minute,
	}
}

func TestValidate(t *testing.T) {
	goodKey := base64.StdEncoding.EncodeToString(make([]byte, 32))

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"valid encryption key", func(c *Config) { c.EncryptionKey = goodKey }, ""},
		{"unknown auth mode", func(c *Config) { c.AuthMode = "ldap" }, "AUTH_MODE"},
		{"firebase without project", func(c *Config) { c.AuthMode = AuthModeFirebase }, "FIREBASE_PROJECT_ID"},
		{"static in release", func(c *Config) { c.GinMode = "release" }, "not allowed"},
		{"bad clipboard mode", func(c *Config) { c.ClipboardMode = "x11" }, "CLIPBOARD_MODE"},
		{"bad audit backend", func(c *Config) { c.AuditBackend = "redis" }, "AUDIT_BACKEND"},
		{"sqlite without dsn", func(c *Config) { c.AuditBackend = AuditBackendSQLite }, "AUDIT_SQLITE_DSN"},
		{"firestore audit without project", func(c *Config) { c.AuditBackend = AuditBackendFirestore }, "FIREBASE_PROJECT_ID"},
		{"short encryption key", func(c *Config) { c.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short")) }, "ENCRYPTION_KEY"},
		{"zero idle timeout", func(c *Config) { c.SessionIdleTimeout = 0 }, "SESSION_IDLE_TIMEOUT"},
		{"empty sign-in url", func(c *Config) { c.SignInURL = "" }, "SIGN_IN_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
