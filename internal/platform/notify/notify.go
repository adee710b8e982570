// Package notify implements the transient UI notification channel: a
// single-subscriber publish side usable from any layer (including the HTTP
// client), and a provider that owns the live notification list.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Type is the severity of a notification.
type Type string

const (
	TypeSuccess Type = "success"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Notification is a single transient message. Timeout of zero means no
// auto-dismiss; the subscriber side schedules the removal.
type Notification struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Message string        `json:"message"`
	Type    Type          `json:"type"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Channel holds at most one active subscriber callback. It is constructed at
// the composition root and passed by reference to everything that raises
// notifications, so there is no hidden global state.
type Channel struct {
	mu     sync.RWMutex
	cb     func(Notification)
	logger zerolog.Logger
}

// NewChannel creates an unregistered channel.
func NewChannel(logger zerolog.Logger) *Channel {
	return &Channel{logger: logger}
}

// Register installs the subscriber callback, replacing any previous one.
func (c *Channel) Register(cb func(Notification)) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *Channel) show(typ Type, title, message string, timeout time.Duration) {
	c.mu.RLock()
	cb := c.cb
	c.mu.RUnlock()
	if cb == nil {
		// Deliberate no-op: callers (e.g. the FHIR client) may fire during
		// bootstrap before the provider registers.
		c.logger.Error().
			Str("type", string(typ)).
			Str("title", title).
			Msg("notification channel not initialized; call Register first")
		return
	}
	cb(Notification{Title: title, Message: message, Type: typ, Timeout: timeout})
}

// ShowSuccess publishes a success notification. Timeout of zero disables
// auto-dismiss.
func (c *Channel) ShowSuccess(title, message string, timeout time.Duration) {
	c.show(TypeSuccess, title, message, timeout)
}

// ShowInfo publishes an info notification.
func (c *Channel) ShowInfo(title, message string, timeout time.Duration) {
	c.show(TypeInfo, title, message, timeout)
}

// ShowWarning publishes a warning notification.
func (c *Channel) ShowWarning(title, message string, timeout time.Duration) {
	c.show(TypeWarning, title, message, timeout)
}

// ShowError publishes an error notification.
func (c *Channel) ShowError(title, message string, timeout time.Duration) {
	c.show(TypeError, title, message, timeout)
}
