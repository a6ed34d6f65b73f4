package match

import (
	"testing"

	"github.com/tkonolige/cpsm/pkg/models"
)

func TestView(t *testing.T) {
	tests := []struct {
		name       string
		mode       models.MatchMode
		line       string
		wantView   string
		wantOffset int
	}{
		{
			name:     "full line",
			mode:     models.MatchFullLine,
			line:     "src/foo/bar.cc",
			wantView: "src/foo/bar.cc",
		},
		{
			name:       "filename only",
			mode:       models.MatchFilenameOnly,
			line:       "src/foo/bar.cc",
			wantView:   "bar.cc",
			wantOffset: 8,
		},
		{
			name:     "filename only without separator",
			mode:     models.MatchFilenameOnly,
			line:     "bar.cc",
			wantView: "bar.cc",
		},
		{
			name:     "first non tab",
			mode:     models.MatchFirstNonTab,
			line:     "path\tdescription\textra",
			wantView: "path",
		},
		{
			name:     "until last tab",
			mode:     models.MatchUntilLastTab,
			line:     "path\tdescription\textra",
			wantView: "path\tdescription",
		},
		{
			name:     "tab modes without tab",
			mode:     models.MatchFirstNonTab,
			line:     "path",
			wantView: "path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, offset := View(tt.mode, []byte(tt.line))
			if string(view) != tt.wantView {
				t.Errorf("View(%q) = %q, want %q", tt.line, view, tt.wantView)
			}
			if offset != tt.wantOffset {
				t.Errorf("View(%q) offset = %d, want %d", tt.line, offset, tt.wantOffset)
			}
		})
	}
}
