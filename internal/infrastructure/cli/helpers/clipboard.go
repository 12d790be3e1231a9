package helpers

import (
	"errors"

	"github.com/atotto/clipboard"
)

var errClipboardUnavailable = errors.New("no clipboard utility available (install pbcopy, xclip, xsel or wl-copy)")

// Clipboard copies action results to the system clipboard.
type Clipboard struct {
	available func() bool
	write     func(string) error
}

// NewClipboard builds the clipboard helper for the running platform.
func NewClipboard() *Clipboard {
	return &Clipboard{
		available: func() bool { return !clipboard.Unsupported },
		write:     clipboard.WriteAll,
	}
}

// Enabled reports whether a clipboard utility was found.
func (c *Clipboard) Enabled() bool {
	return c.available()
}

// Copy writes text to the system clipboard.
func (c *Clipboard) Copy(text string) error {
	if !c.Enabled() {
		return errClipboardUnavailable
	}
	return c.write(text)
}
