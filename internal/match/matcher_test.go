package match

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tkonolige/cpsm/pkg/models"
)

func mustMatcher(t *testing.T, query string, opts models.Options) *Matcher {
	t.Helper()
	m, err := NewMatcher([]byte(query), opts)
	if err != nil {
		t.Fatalf("NewMatcher(%q) failed: %v", query, err)
	}
	return m
}

// matchLine runs the matcher against a candidate with a full-line view.
func matchLine(m *Matcher, line string) (models.Score, []int, bool) {
	return m.Match([]byte(line), []byte(line), &Scratch{})
}

func TestMatchSubsequence(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		matches   bool
	}{
		{name: "exact", query: "bar", candidate: "bar", matches: true},
		{name: "subsequence with gaps", query: "br", candidate: "bar", matches: true},
		{name: "out of order", query: "rb", candidate: "bar", matches: false},
		{name: "missing character", query: "barx", candidate: "bar", matches: false},
		{name: "empty query matches anything", query: "", candidate: "whatever", matches: true},
		{name: "empty candidate", query: "a", candidate: "", matches: false},
		{name: "case folded", query: "readme", candidate: "README", matches: true},
		{name: "spread across components", query: "sfb", candidate: "src/foo/bar.cc", matches: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMatcher(t, tt.query, models.Options{IsPath: true})
			_, _, ok := matchLine(m, tt.candidate)
			if ok != tt.matches {
				t.Errorf("match(%q, %q) = %v, want %v", tt.query, tt.candidate, ok, tt.matches)
			}
		})
	}
}

func TestMatchSmartCase(t *testing.T) {
	upper := mustMatcher(t, "Read", models.Options{})
	if _, _, ok := matchLine(upper, "README"); ok {
		t.Error("uppercase in the query must force case-sensitive matching")
	}
	if _, _, ok := matchLine(upper, "Readme"); !ok {
		t.Error("case-sensitive match against Readme should succeed")
	}

	lower := mustMatcher(t, "read", models.Options{})
	for _, candidate := range []string{"README", "Readme", "readme.md"} {
		if _, _, ok := matchLine(lower, candidate); !ok {
			t.Errorf("lowercase query should match %q case-insensitively", candidate)
		}
	}
}

func TestMatchPositions(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		expected  []int
	}{
		{
			name:      "basename binding",
			query:     "bar",
			candidate: "foo/bar.txt",
			expected:  []int{4, 5, 6},
		},
		{
			name:      "rightmost occurrence wins",
			query:     "bar",
			candidate: "bar/bar.txt",
			expected:  []int{4, 5, 6},
		},
		{
			name:      "path query emits per-component positions",
			query:     "foo/bar",
			candidate: "src/foo/bar.cc",
			expected:  []int{4, 5, 6, 8, 9, 10},
		},
		{
			name:      "empty query",
			query:     "",
			candidate: "foo",
			expected:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMatcher(t, tt.query, models.Options{IsPath: true})
			_, pos, ok := matchLine(m, tt.candidate)
			if !ok {
				t.Fatalf("match(%q, %q) failed", tt.query, tt.candidate)
			}
			if diff := cmp.Diff(tt.expected, pos, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("positions mismatch (-want +got):\n%s", diff)
			}
			for i := 1; i < len(pos); i++ {
				if pos[i] <= pos[i-1] {
					t.Errorf("positions not strictly increasing: %v", pos)
				}
			}
		})
	}
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		expected  models.Score
	}{
		{
			name:      "clean basename match",
			query:     "bar",
			candidate: "foo/bar.txt",
			expected:  models.Score{WordPrefixLen: 3},
		},
		{
			name:      "match in directory component",
			query:     "bar",
			candidate: "bar/qux.txt",
			expected:  models.Score{WordPrefixLen: 3, PartIndexFromEnd: 1},
		},
		{
			name:      "gap inside span",
			query:     "fbr",
			candidate: "fobar",
			expected:  models.Score{WordPrefixLen: 1, UnmatchedLen: 2},
		},
		{
			name:      "camel case word starts",
			query:     "fb",
			candidate: "FooBar.txt",
			expected:  models.Score{WordPrefixLen: 2, UnmatchedLen: 2},
		},
		{
			name:      "first match offset within component",
			query:     "ar",
			candidate: "bar",
			expected:  models.Score{WordPrefixLen: 0, PrefixScore: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMatcher(t, tt.query, models.Options{IsPath: true})
			score, _, ok := matchLine(m, tt.candidate)
			if !ok {
				t.Fatalf("match(%q, %q) failed", tt.query, tt.candidate)
			}
			if diff := cmp.Diff(tt.expected, score); diff != "" {
				t.Errorf("score mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchPathQueryComponentAlignment(t *testing.T) {
	m := mustMatcher(t, "foo/bar", models.Options{IsPath: true})

	if _, _, ok := matchLine(m, "src/foo/bar.cc"); !ok {
		t.Error("aligned components should match")
	}
	if _, _, ok := matchLine(m, "src/bar/foo.cc"); ok {
		t.Error("reversed components should not match a path query")
	}
}

func TestMatchCurFile(t *testing.T) {
	opts := models.Options{IsPath: true, CurFile: "a/b/c.txt", MatchCurFile: false}
	m := mustMatcher(t, "c", opts)
	if _, _, ok := matchLine(m, "a/b/c.txt"); ok {
		t.Error("candidate equal to crfile must be rejected when match-crfile is off")
	}
	if _, _, ok := matchLine(m, "a/d/c.txt"); !ok {
		t.Error("other candidates must still match")
	}

	allowed := mustMatcher(t, "c", models.Options{IsPath: true, CurFile: "a/b/c.txt", MatchCurFile: true})
	if _, _, ok := matchLine(allowed, "a/b/c.txt"); !ok {
		t.Error("candidate equal to crfile must match when match-crfile is on")
	}
}

func TestMatchPathDistance(t *testing.T) {
	m := mustMatcher(t, "c", models.Options{IsPath: true, CurFile: "a/x.txt", MatchCurFile: true})
	score, _, ok := matchLine(m, "a/b/c.txt")
	if !ok {
		t.Fatal("match failed")
	}
	// a/b/c.txt and a/x.txt share one component: 3 + 2 - 2*1.
	if score.PathDistance != 3 {
		t.Errorf("PathDistance = %d, want 3", score.PathDistance)
	}
}

func TestMatchUnicode(t *testing.T) {
	m := mustMatcher(t, "ñ", models.Options{Unicode: true})
	_, pos, ok := matchLine(m, "Año")
	if !ok {
		t.Fatal("unicode fold match failed")
	}
	if len(pos) != 1 || pos[0] != 1 {
		t.Errorf("positions = %v, want [1]", pos)
	}
}

func TestMatchWithView(t *testing.T) {
	m := mustMatcher(t, "bar", models.Options{IsPath: true, MatchMode: models.MatchFilenameOnly})
	line := []byte("foo/bar.txt")
	view, offset := View(models.MatchFilenameOnly, line)
	if offset != 4 {
		t.Fatalf("view offset = %d, want 4", offset)
	}
	_, pos, ok := m.Match(line, view, &Scratch{})
	if !ok {
		t.Fatal("match against view failed")
	}
	want := []int{0, 1, 2}
	if diff := cmp.Diff(want, pos); diff != "" {
		t.Errorf("view positions mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchScratchReuse(t *testing.T) {
	m := mustMatcher(t, "bar", models.Options{IsPath: true})
	scratch := &Scratch{}
	for _, candidate := range []string{"foo/bar.txt", "nope", "b/a/r", "bar"} {
		line := []byte(candidate)
		m.Match(line, line, scratch)
	}
	score, pos, ok := m.Match([]byte("foo/bar.txt"), []byte("foo/bar.txt"), scratch)
	if !ok {
		t.Fatal("match after scratch reuse failed")
	}
	if score.WordPrefixLen != 3 || len(pos) != 3 {
		t.Errorf("scratch reuse corrupted results: score %+v positions %v", score, pos)
	}
}
