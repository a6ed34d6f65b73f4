package match

import (
	"bytes"

	"github.com/tkonolige/cpsm/internal/pathutil"
	"github.com/tkonolige/cpsm/pkg/models"
)

// View selects the substring of line that participates in matching for the
// given mode, and the byte offset of that substring within line. The
// matcher operates on the view; the highlight pass translates positions
// back through the offset.
func View(mode models.MatchMode, line []byte) ([]byte, int) {
	switch mode {
	case models.MatchFilenameOnly:
		offset := pathutil.BasenameOffset(line)
		return line[offset:], offset
	case models.MatchFirstNonTab:
		if idx := bytes.IndexByte(line, '\t'); idx >= 0 {
			return line[:idx], 0
		}
	case models.MatchUntilLastTab:
		if idx := bytes.LastIndexByte(line, '\t'); idx >= 0 {
			return line[:idx], 0
		}
	}
	return line, 0
}
