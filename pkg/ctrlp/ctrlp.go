// Package ctrlp exposes the host-callable matching entry point: one
// operation that consumes a candidate producer and returns ranked matches
// plus optional highlight regexes.
package ctrlp

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tkonolige/cpsm/internal/match"
	"github.com/tkonolige/cpsm/internal/search"
	"github.com/tkonolige/cpsm/pkg/models"
)

// Source produces candidate byte-strings one at a time under the driver's
// lock. See search.Source for the contract.
type Source = search.Source

// Releaser is implemented by sources whose handles must be released for
// rejected candidates. See search.Releaser.
type Releaser = search.Releaser

// Match runs query against the candidates produced by src and returns the
// ranked matches with any requested highlight regexes. Matched candidate
// handles travel back through Result.Matches; all other handles are
// released before Match returns.
func Match(ctx context.Context, src Source, query []byte, opts models.Options) (*models.Result, error) {
	if src == nil {
		return nil, errors.New("candidate source must not be nil")
	}
	if opts.Limit < 0 {
		return nil, errors.Errorf("limit must be non-negative, got %d", opts.Limit)
	}
	if opts.MaxThreads < 0 {
		return nil, errors.Errorf("max threads must be non-negative, got %d", opts.MaxThreads)
	}

	matcher, err := match.NewMatcher(query, opts)
	if err != nil {
		return nil, err
	}
	return search.NewEngine(matcher, opts).Run(ctx, src)
}
