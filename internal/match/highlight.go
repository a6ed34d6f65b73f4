package match

import (
	"fmt"
	"strings"

	"github.com/grafana/regexp"

	"github.com/tkonolige/cpsm/internal/strutil"
	"github.com/tkonolige/cpsm/pkg/models"
)

// EmitRegexes appends highlight regex sources for the matched positions to
// out and returns it. Positions are code-point offsets into line. The
// emitted sources anchor at the start of the candidate and skip to each
// match with a counted wildcard, so they match at the recorded positions
// and nowhere else. Sources are never compiled here; the host's engine
// does that.
func EmitRegexes(h *strutil.Handler, mode models.HighlightMode, line []byte, positions []int, out []string) []string {
	if mode == models.HighlightNone || len(positions) == 0 {
		return out
	}
	runes := h.Decode(line, nil)

	switch mode {
	case models.HighlightBasic:
		for _, p := range positions {
			out = append(out, fmt.Sprintf("(?s)^.{%d}%s", p, regexp.QuoteMeta(string(runes[p]))))
		}
	case models.HighlightDetailed:
		var b strings.Builder
		b.WriteString("(?s)^")
		prevEnd := 0
		for i := 0; i < len(positions); {
			j := i + 1
			for j < len(positions) && positions[j] == positions[j-1]+1 {
				j++
			}
			start, end := positions[i], positions[j-1]+1
			fmt.Fprintf(&b, ".{%d}(%s)", start-prevEnd, regexp.QuoteMeta(string(runes[start:end])))
			prevEnd = end
			i = j
		}
		out = append(out, b.String())
	}
	return out
}
