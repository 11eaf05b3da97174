package clipboard

import (
	"context"
	"errors"
	"testing"
)

func TestBrowserTakeOnce(t *testing.T) {
	b := NewBrowser()
	if _, ok := b.Take(); ok {
		t.Fatal("empty writer reported pending text")
	}

	if err := b.WriteText(context.Background(), "kv_abc"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	text, ok := b.Take()
	if !ok || text != "kv_abc" {
		t.Fatalf("Take = %q, %v", text, ok)
	}
	if _, ok := b.Take(); ok {
		t.Fatal("Take must clear pending text")
	}
}

func TestBrowserCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBrowser()
	if err := b.WriteText(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, ok := b.Take(); ok {
		t.Fatal("cancelled write must not be recorded")
	}
}

func TestSystemCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (System{}).WriteText(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
