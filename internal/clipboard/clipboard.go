// Package clipboard is the clipboard collaborator used by the dashboard's copy action.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when the host has no usable clipboard.
var ErrUnsupported = errors.New("clipboard is not available on this host")

// Writer places text on a clipboard.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// System writes to the clipboard of the machine the server runs on. It only makes
// sense for local, single-user deployments.
type System struct{}

// NewSystem returns a System writer, or ErrUnsupported when the host has no
// clipboard utility (xclip, xsel, wl-copy, pbcopy, clip.exe).
func NewSystem() (System, error) {
	if clipboard.Unsupported {
		return System{}, ErrUnsupported
	}
	return System{}, nil
}

func (System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write system clipboard: %w", err)
	}
	return nil
}

// Browser hands the text back to the client, which performs the actual
// navigator.clipboard write. A Browser is scoped to one request.
type Browser struct {
	mu      sync.Mutex
	pending string
	written bool
}

// NewBrowser returns an empty Browser writer.
func NewBrowser() *Browser {
	return &Browser{}
}

func (b *Browser) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = text
	b.written = true
	return nil
}

// Take returns the text written during this request, if any, and clears it.
func (b *Browser) Take() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, ok := b.pending, b.written
	b.pending, b.written = "", false
	return text, ok
}
