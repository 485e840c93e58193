package fix

import (
	"lantern/internal/diag"
	"lantern/internal/source"
)

// Insert creates an edit that inserts text at the start of at.
func Insert(at source.Span, text string) diag.SpanEdit {
	return diag.SpanEdit{
		Span:    source.Span{File: at.File, Start: at.Start, End: at.Start},
		NewText: text,
	}
}

// Delete removes text covered by span.
func Delete(span source.Span) diag.SpanEdit {
	return diag.SpanEdit{Span: span}
}

// Replace replaces text covered by span with newText.
func Replace(span source.Span, newText string) diag.SpanEdit {
	return diag.SpanEdit{Span: span, NewText: newText}
}

// Wrap surrounds span with prefix and suffix insertions.
func Wrap(span source.Span, prefix, suffix string) []diag.SpanEdit {
	return []diag.SpanEdit{
		{
			Span:    source.Span{File: span.File, Start: span.Start, End: span.Start},
			NewText: prefix,
		},
		{
			Span:    source.Span{File: span.File, Start: span.End, End: span.End},
			NewText: suffix,
		},
	}
}
