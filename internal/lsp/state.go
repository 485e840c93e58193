package lsp

import (
	"sync"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"lantern/internal/diag"
	"lantern/internal/driver"
)

// document is an open text document and its latest good build.
type document struct {
	uri  protocol.DocumentUri
	path string

	mu      sync.Mutex
	text    string
	version protocol.Integer
	// seq grows with every edit; a build finishing for an older seq is
	// dropped.
	seq   uint64
	timer *time.Timer
	// last is the latest successful build; kept when a later one fails.
	last      *driver.Result
	lastText  string
	published []protocol.Diagnostic
}

func (d *document) snapshot() (text string, seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text, d.seq
}

// update replaces the text and returns the new seq.
func (d *document) update(text string, ver protocol.Integer) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.version = ver
	d.seq++
	return d.seq
}

// replaceText replaces the text keeping the version.
func (d *document) replaceText(text string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.seq++
	return d.seq
}

// bump invalidates in-flight builds without changing the text.
func (d *document) bump() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	return d.seq
}

// accept installs res as the latest build if seq is still current. It
// returns false, and closes res, otherwise.
func (d *document) accept(seq uint64, text string, res *driver.Result) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		res.Close()
		return false
	}
	prev := d.last
	d.last = res
	d.lastText = text
	if prev != nil && prev != res {
		prev.Close()
	}
	return true
}

// diagnostics returns the diagnostics and text of the latest good build.
func (d *document) diagnostics() ([]diag.Diagnostic, string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return nil, "", false
	}
	return d.last.Diagnostics, d.lastText, true
}

func (d *document) setPublished(list []protocol.Diagnostic) {
	d.mu.Lock()
	d.published = list
	d.mu.Unlock()
}

func (d *document) currentPublished() []protocol.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.published
}

// release stops pending builds and closes the latest result.
func (d *document) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.last != nil {
		d.last.Close()
		d.last = nil
	}
}
