package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.OfflineIndicator(true)
	assert.True(t, c.Offline())
	c.Notify("Saved offline - will sync when online", SeverityWarning)
	c.OfflineIndicator(false)
	assert.False(t, c.Offline())

	assert.Equal(t,
		"[offline] working from local data\n"+
			"[warning] Saved offline - will sync when online\n"+
			"[online] connection restored\n",
		buf.String())
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	n.OfflineIndicator(true)
	n.Notify("x", SeverityInfo)
}
