package i18n

import "testing"

func TestEnglishMessages(t *testing.T) {
	c := MustNew("en")

	tests := []struct {
		id   string
		data map[string]any
		want string
	}{
		{KeyGenerated, map[string]any{"Name": "Prod Key"}, `API Key "Prod Key" generated!`},
		{KeyNameRequired, nil, "Please enter a name for your key."},
		{KeyCopied, nil, "API Key copied to clipboard!"},
		{KeyCopyFailed, nil, "Could not copy API Key to clipboard."},
		{KeyRenamed, nil, "API Key renamed!"},
		{KeyRenameEmpty, nil, "Name cannot be empty."},
		{KeyRevoked, nil, "API Key revoked!"},
		{KeyNotFound, nil, "API Key not found."},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			var got string
			if tt.data != nil {
				got = c.T(tt.id, tt.data)
			} else {
				got = c.T(tt.id)
			}
			if got != tt.want {
				t.Fatalf("T(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestGermanAndFallback(t *testing.T) {
	if got := MustNew("de").T(KeyRenamed); got != "API-Schlüssel umbenannt!" {
		t.Fatalf("de = %q", got)
	}
	if got := MustNew("fr").T(KeyRenamed); got != "API Key renamed!" {
		t.Fatalf("fallback = %q", got)
	}
	if got := MustNew("").Lang(); got != "en" {
		t.Fatalf("Lang = %q", got)
	}
}

func TestUnknownIDReturnsID(t *testing.T) {
	if got := MustNew("en").T("no.such.message"); got != "no.such.message" {
		t.Fatalf("got %q", got)
	}
}
