// Package ui is how the core talks back to the person using the device: the
// offline indicator and short notifications.
package ui

import (
	"fmt"
	"io"
	"sync"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier receives user-facing state. Implementations must be safe for
// concurrent use; the network monitor calls them from its own goroutine.
type Notifier interface {
	OfflineIndicator(offline bool)
	Notify(text string, severity Severity)
}

// Console writes indicator changes and notifications as lines of text.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	offline bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) OfflineIndicator(offline bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offline = offline
	if offline {
		fmt.Fprintln(c.w, "[offline] working from local data")
		return
	}
	fmt.Fprintln(c.w, "[online] connection restored")
}

func (c *Console) Notify(text string, severity Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[%s] %s\n", severity, text)
}

// Offline reports the last indicator state shown.
func (c *Console) Offline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offline
}

type Nop struct{}

func (Nop) OfflineIndicator(bool)   {}
func (Nop) Notify(string, Severity) {}
