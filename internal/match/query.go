package match

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/tkonolige/cpsm/internal/pathutil"
	"github.com/tkonolige/cpsm/internal/strutil"
	"github.com/tkonolige/cpsm/pkg/models"
)

// Query is the prepared, immutable form of the user's search string.
type Query struct {
	// Raw is the query byte-string after inversion, if any.
	Raw []byte
	// Runes holds the decoded code points.
	Runes []rune
	// Folded holds the case-folded code points.
	Folded []rune
	// HasUpper is the smart-case flag: an uppercase code point anywhere
	// in the query makes matching case-sensitive.
	HasUpper bool
	// IsPathQuery is set when the query contains a path separator and
	// path-aware matching is enabled; such queries match component-wise.
	IsPathQuery bool
	// Parts holds the query's path components (separators stripped,
	// effective casing applied) when IsPathQuery is set.
	Parts [][]rune
}

// NewQuery decodes and analyses the raw query under the given options.
func NewQuery(raw []byte, opts models.Options, h *strutil.Handler) (Query, error) {
	inverted, err := invertQuery(string(raw), opts.QueryInvertingDelimiter)
	if err != nil {
		return Query{}, err
	}

	q := Query{Raw: []byte(inverted)}
	q.Runes = h.Decode(q.Raw, nil)
	q.Folded = h.FoldInto(q.Runes, nil)
	for _, cp := range q.Runes {
		if h.Fold(cp) != cp {
			q.HasUpper = true
			break
		}
	}

	if opts.IsPath {
		effective := q.effective()
		for _, cp := range effective {
			if cp == pathutil.Separator {
				q.IsPathQuery = true
				break
			}
		}
		if q.IsPathQuery {
			q.Parts = splitQueryParts(effective)
		}
	}
	return q, nil
}

// effective returns the code points the subsequence scan compares against:
// the original ones under smart case, the folded ones otherwise.
func (q *Query) effective() []rune {
	if q.HasUpper {
		return q.Runes
	}
	return q.Folded
}

// invertQuery splits the query on the delimiter and re-joins the segments
// in reverse order with the path separator, so "main.cc src" typed with a
// space delimiter searches for "src/main.cc". A query without the
// delimiter is returned unchanged.
func invertQuery(query, delim string) (string, error) {
	if delim == "" {
		return query, nil
	}
	if utf8.RuneCountInString(delim) > 1 {
		return "", errors.Errorf("query inverting delimiter %q is longer than one code point", delim)
	}
	segments := strings.Split(query, delim)
	if len(segments) == 1 {
		return query, nil
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, string(pathutil.Separator)), nil
}

// splitQueryParts splits the query code points at separators, dropping the
// separators and any empty segments.
func splitQueryParts(runes []rune) [][]rune {
	var parts [][]rune
	start := 0
	for i := 0; i <= len(runes); i++ {
		if i == len(runes) || runes[i] == pathutil.Separator {
			if i > start {
				parts = append(parts, runes[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
