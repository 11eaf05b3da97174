// Package notify carries the transient success/error messages ("toasts") that the
// dashboard fires after each user action.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Level distinguishes success toasts from error-styled ones.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one fired message, in the shape pages and API responses render.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier is the notification collaborator. Both methods are fire-and-forget.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Collector records notifications in firing order so a handler can render them
// with its response. A Collector is scoped to one request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Success(message string) { c.add(LevelSuccess, message) }

func (c *Collector) Error(message string) { c.add(LevelError, message) }

func (c *Collector) add(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Notification{Level: level, Message: message})
}

// Drain returns everything collected so far and resets the collector.
// The result is never nil so it serializes as an empty JSON array.
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Logged mirrors every notification to a zap logger before passing it on.
type Logged struct {
	next   Notifier
	logger *zap.Logger
	fields []zap.Field
}

// NewLogged wraps next. fields are attached to every log line (user, session).
func NewLogged(next Notifier, logger *zap.Logger, fields ...zap.Field) *Logged {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logged{next: next, logger: logger, fields: fields}
}

func (l *Logged) Success(message string) {
	l.log(LevelSuccess, message)
	l.next.Success(message)
}

func (l *Logged) Error(message string) {
	l.log(LevelError, message)
	l.next.Error(message)
}

func (l *Logged) log(level Level, message string) {
	fields := make([]zap.Field, 0, len(l.fields)+2)
	fields = append(fields, l.fields...)
	fields = append(fields, zap.String("level", string(level)), zap.String("message", message))
	l.logger.Debug("Notification fired", fields...)
}
