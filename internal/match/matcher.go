// Package match implements the core scorer: it decides whether a query is
// a subsequence of a candidate, computes the score tuple, and records the
// matched positions when asked to.
package match

import (
	"unicode"

	"github.com/tkonolige/cpsm/internal/pathutil"
	"github.com/tkonolige/cpsm/internal/strutil"
	"github.com/tkonolige/cpsm/pkg/models"
)

// Matcher tests candidates against one prepared query. It is constructed
// once per request and consulted read-only by all workers; mutable scratch
// state lives in per-worker Scratch values.
type Matcher struct {
	handler      *strutil.Handler
	opts         models.Options
	query        Query
	curFileParts []string
}

// NewMatcher prepares a matcher for the given raw query and options.
func NewMatcher(rawQuery []byte, opts models.Options) (*Matcher, error) {
	handler := strutil.NewHandler(opts.Unicode)
	query, err := NewQuery(rawQuery, opts, handler)
	if err != nil {
		return nil, err
	}
	m := &Matcher{handler: handler, opts: opts, query: query}
	if opts.IsPath && opts.CurFile != "" {
		m.curFileParts = pathutil.SplitComponents(opts.CurFile)
	}
	return m, nil
}

// Handler returns the string handler the matcher decodes with.
func (m *Matcher) Handler() *strutil.Handler {
	return m.handler
}

// Scratch holds per-worker buffers reused across candidates so the hot
// path does not allocate.
type Scratch struct {
	runes     []rune
	folded    []rune
	positions []int
	spans     [][2]int
	chosen    []int
}

// Match tests one candidate. line is the full original candidate, view the
// substring selected by the match mode. It returns the score tuple, the
// matched positions as code-point offsets into the view (valid until the
// next call with the same Scratch), and whether the candidate matched.
func (m *Matcher) Match(line, view []byte, s *Scratch) (models.Score, []int, bool) {
	if !m.opts.MatchCurFile && m.opts.CurFile != "" && string(line) == m.opts.CurFile {
		return models.Score{}, nil, false
	}

	s.runes = m.handler.Decode(view, s.runes)
	cand := s.runes
	if !m.query.HasUpper {
		s.folded = m.handler.FoldInto(s.runes, s.folded)
		cand = s.folded
	}

	var ok bool
	if m.query.IsPathQuery {
		s.positions, ok = m.matchParts(cand, s)
	} else {
		s.positions, ok = matchFlat(cand, m.query.effective(), s.positions[:0])
	}
	if !ok {
		return models.Score{}, nil, false
	}
	return m.scoreOf(line, s.runes, s.positions), s.positions, true
}

// matchFlat scans the candidate right to left so the query binds to the
// basename first and falls through into earlier components. Greedy
// rightmost binding is complete: it fails only when no subsequence exists.
func matchFlat(cand, query []rune, pos []int) ([]int, bool) {
	qi := len(query) - 1
	for ci := len(cand) - 1; ci >= 0 && qi >= 0; ci-- {
		if cand[ci] == query[qi] {
			pos = append(pos, ci)
			qi--
		}
	}
	if qi >= 0 {
		return pos, false
	}
	reverseInts(pos)
	return pos, true
}

// matchParts matches a path-structured query component-wise: query
// components are consumed from the right, and each must match inside a
// single candidate component strictly left of the previous one.
func (m *Matcher) matchParts(cand []rune, s *Scratch) ([]int, bool) {
	s.spans = componentSpans(cand, s.spans[:0])
	s.chosen = s.chosen[:0]
	parts := m.query.Parts

	next := len(s.spans) - 1
	for pi := len(parts) - 1; pi >= 0; pi-- {
		found := -1
		for j := next; j >= 0; j-- {
			if subseqInSpan(cand, s.spans[j], parts[pi]) {
				found = j
				break
			}
		}
		if found < 0 {
			return s.positions[:0], false
		}
		s.chosen = append(s.chosen, found)
		next = found - 1
	}

	// chosen is in right-to-left part order; emit positions left to right.
	pos := s.positions[:0]
	for pi := range parts {
		span := s.spans[s.chosen[len(parts)-1-pi]]
		pos = appendSpanPositions(cand, span, parts[pi], pos)
	}
	return pos, true
}

// componentSpans records the [start, end) rune range of each path
// component, trailing separator included.
func componentSpans(cand []rune, spans [][2]int) [][2]int {
	start := 0
	for i, cp := range cand {
		if cp == pathutil.Separator {
			spans = append(spans, [2]int{start, i + 1})
			start = i + 1
		}
	}
	if start < len(cand) {
		spans = append(spans, [2]int{start, len(cand)})
	}
	return spans
}

// subseqInSpan reports whether part is a subsequence of cand within span.
func subseqInSpan(cand []rune, span [2]int, part []rune) bool {
	qi := len(part) - 1
	for ci := span[1] - 1; ci >= span[0] && qi >= 0; ci-- {
		if cand[ci] == part[qi] {
			qi--
		}
	}
	return qi < 0
}

// appendSpanPositions repeats the reverse-greedy scan of subseqInSpan and
// appends the accepted positions in increasing order.
func appendSpanPositions(cand []rune, span [2]int, part []rune, pos []int) []int {
	mark := len(pos)
	qi := len(part) - 1
	for ci := span[1] - 1; ci >= span[0] && qi >= 0; ci-- {
		if cand[ci] == part[qi] {
			pos = append(pos, ci)
			qi--
		}
	}
	reverseInts(pos[mark:])
	return pos
}

// scoreOf computes the score tuple for a successful match. line is the
// full candidate, runes the decoded view in original case, pos the matched
// positions in increasing order.
func (m *Matcher) scoreOf(line []byte, runes []rune, pos []int) models.Score {
	var sc models.Score
	if m.opts.IsPath && len(m.curFileParts) > 0 {
		sc.PathDistance = pathutil.Distance(pathutil.SplitComponents(string(line)), m.curFileParts)
	}
	if len(pos) == 0 {
		return sc
	}

	for i, p := range pos {
		if isWordStart(runes, p) || (i > 0 && p == pos[i-1]+1) {
			sc.WordPrefixLen++
			continue
		}
		break
	}

	first, last := pos[0], pos[len(pos)-1]
	sc.UnmatchedLen = last - first + 1 - len(pos)

	if m.opts.IsPath {
		for i := last + 1; i < len(runes); i++ {
			if runes[i] == pathutil.Separator {
				sc.PartIndexFromEnd++
			}
		}
	}

	componentStart := 0
	for i := first - 1; i >= 0; i-- {
		if runes[i] == pathutil.Separator {
			componentStart = i + 1
			break
		}
	}
	sc.PrefixScore = first - componentStart

	return sc
}

type charClass int

const (
	charNonWord charClass = iota
	charLower
	charUpper
	charLetter
	charNumber
)

func classOf(cp rune) charClass {
	if cp <= unicode.MaxASCII {
		switch {
		case cp >= 'a' && cp <= 'z':
			return charLower
		case cp >= 'A' && cp <= 'Z':
			return charUpper
		case cp >= '0' && cp <= '9':
			return charNumber
		}
		return charNonWord
	}
	switch {
	case unicode.IsLower(cp):
		return charLower
	case unicode.IsUpper(cp):
		return charUpper
	case unicode.IsNumber(cp):
		return charNumber
	case unicode.IsLetter(cp):
		return charLetter
	}
	return charNonWord
}

// isWordStart reports whether position i begins a word: the start of a
// component, the first code point after a non-alphanumeric, the first
// letter after a digit, or an uppercase following a lowercase.
func isWordStart(runes []rune, i int) bool {
	if i == 0 {
		return true
	}
	prev, cur := classOf(runes[i-1]), classOf(runes[i])
	switch {
	case prev == charNonWord && cur != charNonWord:
		return true
	case prev == charNumber && (cur == charLower || cur == charUpper || cur == charLetter):
		return true
	case prev == charLower && cur == charUpper:
		return true
	}
	return false
}

func reverseInts(v []int) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
