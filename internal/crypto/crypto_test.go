package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key, err := NewEphemeralKey()
	if err != nil {
		t.Fatalf("NewEphemeralKey: %v", err)
	}
	s, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return s
}

func TestSealerRoundTrip(t *testing.T) {
	s := newTestSealer(t)
	for _, plain := range []string{"", "a", "kv_exactly-sixteen", strings.Repeat("x", 100)} {
		sealed, err := s.Seal(plain)
		if err != nil {
			t.Fatalf("Seal(%q): %v", plain, err)
		}
		if sealed == plain {
			t.Fatalf("Seal(%q) returned the plain text", plain)
		}
		got, err := s.Open(sealed)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if got != plain {
			t.Fatalf("Open = %q, want %q", got, plain)
		}
	}
}

func TestSealUsesFreshIV(t *testing.T) {
	s := newTestSealer(t)
	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	if a == b {
		t.Fatal("two seals of the same value should differ")
	}
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	sealed, err := newTestSealer(t).Seal("kv_secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := newTestSealer(t).Open(sealed)
	if err == nil && got == "kv_secret" {
		t.Fatal("opening with a different key should not recover the secret")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	s := newTestSealer(t)
	cases := []string{
		"not base64!!",
		base64.StdEncoding.EncodeToString([]byte("short")),
		base64.StdEncoding.EncodeToString([]byte(strings.Repeat("0", 32) + "abc")),
	}
	for _, c := range cases {
		if _, err := s.Open(c); err == nil {
			t.Errorf("Open(%q) should fail", c)
		}
	}
}

func TestParseKey(t *testing.T) {
	good := base64.StdEncoding.EncodeToString(make([]byte, 32))
	if _, err := ParseKey(good); err != nil {
		t.Fatalf("ParseKey(valid): %v", err)
	}

	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	if _, err := ParseKey(short); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("ParseKey(short) err = %v, want ErrInvalidKey", err)
	}
	if _, err := ParseKey("%%%"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("ParseKey(garbage) err = %v, want ErrInvalidKey", err)
	}
}

func TestGenerateAPIKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		k, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey: %v", err)
		}
		if !strings.HasPrefix(k, APIKeyPrefix) {
			t.Fatalf("key %q missing prefix", k)
		}
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}

func TestMaskAPIKey(t *testing.T) {
	masked := MaskAPIKey("kv_abcdefghijklmnop")
	if !strings.HasPrefix(masked, "kv_abcde") {
		t.Fatalf("masked = %q, want visible prefix", masked)
	}
	if strings.Contains(masked, "fghij") {
		t.Fatalf("masked = %q leaks the secret tail", masked)
	}
	if got := MaskAPIKey("abc"); got != "•••" {
		t.Fatalf("MaskAPIKey(short) = %q", got)
	}
}
