// Package strutil decodes candidate byte-strings into code points and
// applies case folding under a selected encoding.
package strutil

import (
	"unicode"
	"unicode/utf8"
)

// Handler decodes byte-strings into code points. In ASCII mode every byte
// is one code point; in Unicode mode input is decoded as UTF-8. A Handler
// holds no mutable state and is safe to share across workers; callers own
// the scratch buffers.
type Handler struct {
	unicode bool
}

// NewHandler returns a Handler for the given encoding.
func NewHandler(unicodeMode bool) *Handler {
	return &Handler{unicode: unicodeMode}
}

// Decode appends the code points of b to buf[:0] and returns the result.
// In Unicode mode an invalid byte decodes as its raw value and decoding
// continues.
func (h *Handler) Decode(b []byte, buf []rune) []rune {
	out := buf[:0]
	if !h.unicode {
		for _, c := range b {
			out = append(out, rune(c))
		}
		return out
	}
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			r = rune(b[0])
			size = 1
		}
		out = append(out, r)
		b = b[size:]
	}
	return out
}

// Fold maps cp to its lowercase form. ASCII mode folds only A-Z.
func (h *Handler) Fold(cp rune) rune {
	if !h.unicode {
		if cp >= 'A' && cp <= 'Z' {
			return cp + ('a' - 'A')
		}
		return cp
	}
	return unicode.ToLower(cp)
}

// FoldInto appends the folded form of each code point in src to buf[:0].
func (h *Handler) FoldInto(src []rune, buf []rune) []rune {
	out := buf[:0]
	for _, cp := range src {
		out = append(out, h.Fold(cp))
	}
	return out
}

// Count returns the number of code points in b under the handler's
// encoding. Used to rebase view-relative positions onto the full line.
func (h *Handler) Count(b []byte) int {
	if !h.unicode {
		return len(b)
	}
	n := 0
	for len(b) > 0 {
		_, size := utf8.DecodeRune(b)
		b = b[size:]
		n++
	}
	return n
}
