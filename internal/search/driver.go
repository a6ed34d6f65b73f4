// Package search runs the matcher across worker threads over a shared
// candidate producer and merges the per-worker results.
package search

import (
	"context"
	"io"
	"runtime"
	"sync"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tkonolige/cpsm/internal/constants"
	"github.com/tkonolige/cpsm/internal/match"
	"github.com/tkonolige/cpsm/pkg/models"
)

// ErrInvariant reports that a returned match failed to re-match during the
// highlight pass.
var ErrInvariant = errors.New("highlight pass failed to re-match a returned candidate")

// Source produces candidate byte-strings one at a time. Next returns
// io.EOF at end of stream; any other error is a host error and is
// surfaced verbatim. Sources are pulled under a single lock and need not
// be safe for concurrent use.
type Source interface {
	Next() (line []byte, handle any, err error)
}

// Releaser is implemented by sources whose handles must be released when a
// candidate is rejected. Release is only called while the producer lock is
// held, since hosts may not allow concurrent access to their handles.
type Releaser interface {
	Release(handle any)
}

// Engine drives one match request across worker goroutines.
type Engine struct {
	matcher *match.Matcher
	opts    models.Options
}

// NewEngine creates an engine around a constructed matcher.
func NewEngine(matcher *match.Matcher, opts models.Options) *Engine {
	return &Engine{matcher: matcher, opts: opts}
}

// producerState is the only shared mutable state: the source and its two
// flags, all guarded by mu.
type producerState struct {
	mu       sync.Mutex
	src      Source
	releaser Releaser
	eof      bool
	hostErr  error
}

// release drops the given handles. Callers must hold mu.
func (p *producerState) release(handles []any) {
	if p.releaser == nil {
		return
	}
	for _, h := range handles {
		p.releaser.Release(h)
	}
}

type batchItem struct {
	line   []byte
	handle any
}

// Run pulls candidates from src, matches them across workers, and returns
// the merged, ranked result together with highlight regexes when a
// highlight mode is set.
func (e *Engine) Run(ctx context.Context, src Source) (res *models.Result, err error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "CtrlPMatch")
	ext.Component.Set(span, "matcher")
	span.SetTag("limit", e.opts.Limit)
	span.SetTag("ispath", e.opts.IsPath)
	defer func() {
		if err != nil {
			ext.Error.Set(span, true)
			span.SetTag("err", err.Error())
		}
		span.Finish()
	}()

	workers := e.workerCount()
	span.SetTag("workers", workers)

	state := &producerState{src: src}
	if r, ok := src.(Releaser); ok {
		state.releaser = r
	}

	perWorker := make([][]models.Match, workers)
	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			matches, werr := e.worker(state)
			perWorker[i] = matches
			return werr
		})
	}
	if err := g.Wait(); err != nil {
		releaseAll(state, perWorker)
		return nil, err
	}
	if state.hostErr != nil {
		releaseAll(state, perWorker)
		return nil, state.hostErr
	}

	merged := make([]models.Match, 0)
	for _, matches := range perWorker {
		merged = append(merged, matches...)
	}
	kept, dropped := Rank(merged, e.opts.Limit)
	// Matches cut at the merge still hold handles; nothing else will
	// release them.
	releaseMatches(state, dropped)

	result := &models.Result{Matches: kept}
	if e.opts.HighlightMode != models.HighlightNone {
		result.Regexes, err = e.highlightPass(kept)
		if err != nil {
			return nil, err
		}
	}
	span.SetTag("matches", len(result.Matches))
	return result, nil
}

// workerCount is min(NumCPU, MaxThreads) when MaxThreads is set, with a
// floor of one.
func (e *Engine) workerCount() int {
	workers := runtime.NumCPU()
	if e.opts.MaxThreads > 0 && e.opts.MaxThreads < workers {
		workers = e.opts.MaxThreads
	}
	if workers < constants.MinWorkers {
		workers = constants.MinWorkers
	}
	return workers
}

// worker repeatedly pulls a batch under the producer lock, matches it
// locally, and keeps its best matches in a bounded heap. Handles of
// rejected candidates are released on the next locked pass.
func (e *Engine) worker(state *producerState) ([]models.Match, error) {
	scratch := &match.Scratch{}
	top := newTopK(e.opts.Limit)
	var batch []batchItem
	var pending []any

	for {
		batch = batch[:0]

		state.mu.Lock()
		state.release(pending)
		pending = pending[:0]
		if state.eof || state.hostErr != nil {
			state.mu.Unlock()
			return top.Drain(), nil
		}
		size := 0
		for size < constants.BatchSizeBytes {
			line, handle, err := state.src.Next()
			if err == io.EOF {
				state.eof = true
				break
			}
			if err != nil {
				state.hostErr = err
				for _, it := range batch {
					pending = append(pending, it.handle)
				}
				state.release(pending)
				state.mu.Unlock()
				return top.Drain(), nil
			}
			batch = append(batch, batchItem{line: line, handle: handle})
			size += len(line)
		}
		state.mu.Unlock()

		for _, it := range batch {
			view, _ := match.View(e.opts.MatchMode, it.line)
			score, _, ok := e.matcher.Match(it.line, view, scratch)
			if !ok {
				pending = append(pending, it.handle)
				continue
			}
			if evicted, has := top.Add(models.Match{Handle: it.handle, Line: it.line, Score: score}); has {
				pending = append(pending, evicted)
			}
		}
	}
}

// highlightPass re-matches the final list with position recording and
// emits the highlight regexes, rebasing positions from the substring view
// onto the full candidate.
func (e *Engine) highlightPass(matches []models.Match) ([]string, error) {
	handler := e.matcher.Handler()
	scratch := &match.Scratch{}
	regexes := make([]string, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		view, offset := match.View(e.opts.MatchMode, m.Line)
		_, pos, ok := e.matcher.Match(m.Line, view, scratch)
		if !ok {
			return nil, errors.Wrapf(ErrInvariant, "candidate %q", m.Line)
		}
		base := handler.Count(m.Line[:offset])
		rebased := make([]int, len(pos))
		for j, p := range pos {
			rebased[j] = p + base
		}
		regexes = match.EmitRegexes(handler, e.opts.HighlightMode, m.Line, rebased, regexes)
	}
	return regexes, nil
}

// releaseMatches drops the handles of matches that will not be returned to
// the host. Handles are only touched under the producer lock.
func releaseMatches(state *producerState, matches []models.Match) {
	if state.releaser == nil || len(matches) == 0 {
		return
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	for _, m := range matches {
		state.releaser.Release(m.Handle)
	}
}

// releaseAll drops every handle still held in worker heaps after a failed
// request; nothing is returned to the host, so nothing else will release
// them. The workers have exited, so the producer lock is uncontended.
func releaseAll(state *producerState, perWorker [][]models.Match) {
	for _, matches := range perWorker {
		releaseMatches(state, matches)
	}
}
