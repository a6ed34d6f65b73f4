// Package models defines the data structures shared by the matcher and its
// hosts: options, match modes, score tuples, and match records.
package models

import (
	"bytes"

	"github.com/pkg/errors"
)

// MatchMode selects which substring of a candidate participates in
// matching.
type MatchMode int

const (
	// MatchFullLine matches against the whole candidate.
	MatchFullLine MatchMode = iota
	// MatchFilenameOnly matches against the basename only.
	MatchFilenameOnly
	// MatchFirstNonTab matches against the candidate up to its first tab.
	MatchFirstNonTab
	// MatchUntilLastTab matches against the candidate up to its last tab.
	MatchUntilLastTab
)

// ParseMatchMode maps the wire strings used by hosts onto a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "full-line":
		return MatchFullLine, nil
	case "filename-only":
		return MatchFilenameOnly, nil
	case "first-non-tab":
		return MatchFirstNonTab, nil
	case "until-last-tab":
		return MatchUntilLastTab, nil
	}
	return MatchFullLine, errors.Errorf("unknown match mode %q", s)
}

// HighlightMode selects how matched positions are reported back to the
// host as regex source strings.
type HighlightMode int

const (
	// HighlightNone emits no regexes.
	HighlightNone HighlightMode = iota
	// HighlightBasic emits one regex per matched code point.
	HighlightBasic
	// HighlightDetailed emits one combined regex whose capture groups are
	// the consecutive matched ranges.
	HighlightDetailed
)

// ParseHighlightMode maps the wire strings used by hosts onto a
// HighlightMode.
func ParseHighlightMode(s string) (HighlightMode, error) {
	switch s {
	case "", "none":
		return HighlightNone, nil
	case "basic":
		return HighlightBasic, nil
	case "detailed":
		return HighlightDetailed, nil
	}
	return HighlightNone, errors.Errorf("unknown highlight mode %q", s)
}

// Options configures one match request.
type Options struct {
	// Limit caps the number of returned matches. 0 means unlimited.
	Limit int
	// MatchMode selects the candidate substring to match against.
	MatchMode MatchMode
	// IsPath enables path-aware scoring: component decomposition, basename
	// preference, and proximity to CurFile.
	IsPath bool
	// CurFile is the path of the currently focused file, if any. Used for
	// proximity scoring and, with MatchCurFile false, rejection.
	CurFile string
	// HighlightMode selects highlight regex emission.
	HighlightMode HighlightMode
	// MatchCurFile, when false, rejects candidates equal to CurFile.
	MatchCurFile bool
	// MaxThreads bounds the worker count. 0 means one worker per CPU.
	MaxThreads int
	// QueryInvertingDelimiter, when non-empty, splits the query and
	// reverses its segments. At most one code point.
	QueryInvertingDelimiter string
	// Unicode selects UTF-8 decoding instead of the ASCII fast path.
	Unicode bool
}

// Score is the fixed tuple ordering matches. Fields are listed in priority
// order; Compare implements the lexicographic comparison.
type Score struct {
	// WordPrefixLen is the length of the query prefix whose matched
	// positions each fall on a word start or directly follow the previous
	// matched position. Higher is better.
	WordPrefixLen int
	// UnmatchedLen counts unmatched candidate code points inside the
	// matched span. Lower is better.
	UnmatchedLen int
	// PartIndexFromEnd is the right-based index of the component where
	// matching ended. Basename matches (0) rank first; among the rest,
	// matches closer to the root rank first.
	PartIndexFromEnd int
	// PathDistance is the component distance to the current file. Lower
	// is better.
	PathDistance int
	// PrefixScore is the offset of the first matched code point within
	// its component. Lower is better.
	PrefixScore int
}

// Compare returns a negative value if s ranks before o, positive if after,
// and 0 on a tie.
func (s Score) Compare(o Score) int {
	if s.WordPrefixLen != o.WordPrefixLen {
		if s.WordPrefixLen > o.WordPrefixLen {
			return -1
		}
		return 1
	}
	if s.UnmatchedLen != o.UnmatchedLen {
		if s.UnmatchedLen < o.UnmatchedLen {
			return -1
		}
		return 1
	}
	if s.PartIndexFromEnd != o.PartIndexFromEnd {
		if partRank(s.PartIndexFromEnd) < partRank(o.PartIndexFromEnd) {
			return -1
		}
		return 1
	}
	if s.PathDistance != o.PathDistance {
		if s.PathDistance < o.PathDistance {
			return -1
		}
		return 1
	}
	if s.PrefixScore != o.PrefixScore {
		if s.PrefixScore < o.PrefixScore {
			return -1
		}
		return 1
	}
	return 0
}

// partRank orders PartIndexFromEnd values: the basename ranks first, then
// components closer to the root.
func partRank(idx int) int {
	if idx == 0 {
		return -(1 << 30)
	}
	return -idx
}

// Match records one accepted candidate.
type Match struct {
	// Handle is the opaque host value associated with the candidate.
	Handle any
	// Line is the candidate's original byte content, kept for the final
	// tiebreak and the highlight pass.
	Line []byte
	// Score is the computed score tuple.
	Score Score
}

// Less reports whether m ranks strictly before o, falling back to the
// byte-lexicographic tiebreak on the original candidate.
func (m *Match) Less(o *Match) bool {
	if c := m.Score.Compare(o.Score); c != 0 {
		return c < 0
	}
	return bytes.Compare(m.Line, o.Line) < 0
}

// Result is what a match request returns to the host.
type Result struct {
	// Matches holds the accepted candidates in descending score order.
	Matches []Match
	// Regexes holds highlight regex sources, empty unless a highlight
	// mode was requested.
	Regexes []string
}
