// Package window provides the main window of the shell: the backend web UI
// opened in the user's browser.
package window

import (
	"errors"

	"github.com/pkg/browser"
)

var ErrNoURL = errors.New("main window has no url")

type Browser struct {
	url  string
	open func(url string) error
}

// NewBrowser returns nil for an empty url, meaning the shell has no window.
func NewBrowser(url string) *Browser {
	if url == "" {
		return nil
	}
	return &Browser{url: url, open: browser.OpenURL}
}

// WithOpener replaces the function used to open the url.
func (b *Browser) WithOpener(open func(url string) error) *Browser {
	b.open = open
	return b
}

func (b *Browser) URL() string {
	return b.url
}

func (b *Browser) Show() error {
	if b.url == "" {
		return ErrNoURL
	}
	return b.open(b.url)
}

// SetFocus is a no-op: the browser raises the page it opens.
func (b *Browser) SetFocus() error {
	return nil
}
