package astbuild

import (
	"lantern/internal/headers"
	"lantern/internal/lexer"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/token"
)

// ReplayPreamble gives listeners registered before it the include events
// of the preamble, which a session resuming after the preamble never
// produces. Only the direct includes of the main file are replayed.
//
// The events are sent when control first returns from the <built-in>
// buffer to the main file, before the listeners see that exit, and at most
// once per session.
type ReplayPreamble struct {
	pp.EmptyCallbacks
	includes []headers.Inclusion
	delegate pp.Callbacks
	p        *pp.Preprocessor
	replayed bool
}

// AttachReplayPreamble installs the replay on p. Without an existing
// listener nothing would observe the events, and nothing is attached.
func AttachReplayPreamble(includes []headers.Inclusion, p *pp.Preprocessor) *ReplayPreamble {
	delegate := p.Callbacks()
	if delegate == nil {
		return nil
	}
	r := &ReplayPreamble{includes: includes, delegate: delegate, p: p}
	p.AddCallbacks(r)
	return r
}

// Replayed reports whether the events were sent.
func (r *ReplayPreamble) Replayed() bool { return r != nil && r.replayed }

func (r *ReplayPreamble) FileChanged(loc source.Span, reason pp.FileChangeReason, _ pp.CharacteristicKind, prev source.FileID) {
	if r.replayed || reason != pp.ExitFile {
		return
	}
	sources := r.p.Sources()
	if !sources.IsBuiltin(prev) || sources.BufferName(prev) != source.BuiltinBufferName {
		return
	}
	r.replayed = true
	r.replay()
}

func (r *ReplayPreamble) replay() {
	sources := r.p.Sources()
	main := sources.Get(sources.MainFile())
	if main == nil {
		return
	}
	files := r.p.FileManager()
	for _, inc := range r.includes {
		hash, kw, file, ok := relexDirective(main, inc.HashOffset)
		if !ok {
			log.Debugf("cannot re-lex include at offset %d of %s", inc.HashOffset, main.Path)
			continue
		}
		written := file.Text[1 : len(file.Text)-1]
		entry, err := files.GetFile(inc.Resolved)
		if inc.Resolved == "" || err != nil {
			r.delegate.FileNotFound(written)
			continue
		}
		r.delegate.InclusionDirective(pp.InclusionDirective{
			Hash:         hash,
			Include:      kw,
			FileName:     written,
			Angled:       inc.Angled,
			FilenameTok:  file,
			File:         entry,
			SearchPath:   "SearchPath",
			RelativePath: "RelPath",
			Kind:         inc.FileKind,
		})
		r.delegate.FileSkipped(entry, file, inc.FileKind)
	}
}

// relexDirective lexes `#`, the directive keyword and the header name of the
// include that starts at off.
func relexDirective(f *source.File, off uint32) (hash, kw, file token.Token, ok bool) {
	if int(off) >= len(f.Content) {
		return hash, kw, file, false
	}
	lx := lexer.NewAt(f, off, lexer.Options{})
	hash = lx.Next()
	if hash.Kind != token.Hash {
		return hash, kw, file, false
	}
	lx.SetDirectiveMode(true)
	kw = lx.Next()
	file = lx.LexIncludeFilename()
	if file.Kind != token.HeaderName || len(file.Text) < 3 {
		return hash, kw, file, false
	}
	return hash, kw, file, true
}
