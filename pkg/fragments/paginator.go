package fragments

import (
	"context"
	"iter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

const minimumProgressIncrement = 1

// Paginator walks pages backward through their previous links
type Paginator struct {
	source PageSource
}

func NewPaginator(source PageSource) *Paginator {
	return &Paginator{source: source}
}

type CollectOption func(*collectOptions)

type collectOptions struct {
	maxPages int

	progressTarget time.Time
	progress       func(percent int)
}

// WithMaxPages bounds the number of pages fetched, running past the bound produces an IncompleteDataError
func WithMaxPages(maxPages int) CollectOption {
	return func(o *collectOptions) {
		o.maxPages = maxPages
	}
}

// WithProgress reports an estimate of how much of the span between the start time and target has been covered
func WithProgress(target time.Time, progress func(percent int)) CollectOption {
	return func(o *collectOptions) {
		o.progressTarget = target
		o.progress = progress
	}
}

// Collect fetches the page at start and then its predecessors, one at a time.
// Every page is yielded as soon as it is available. The walk ends after a page for which
// continuePredicate returns false, or when a page has no previous link. Fetch errors end the
// sequence with exactly one error.
func (p *Paginator) Collect(ctx context.Context, start time.Time, continuePredicate func(*ctdf.Page) bool, options ...CollectOption) iter.Seq2[*ctdf.Page, error] {
	collectOptions := &collectOptions{}
	for _, option := range options {
		option(collectOptions)
	}

	return func(yield func(*ctdf.Page, error) bool) {
		reporter := newProgressReporter(start, collectOptions)
		visited := map[string]bool{}
		pageCount := 0

		page, err := p.source.FetchPageAt(ctx, start)

		for {
			if err != nil {
				yield(nil, err)
				return
			}

			pageCount++
			visited[page.URI] = true
			reporter.update(page.EarliestDeparture())

			if !yield(page, nil) {
				return
			}

			if !continuePredicate(page) || !page.HasPrevious() || visited[page.Previous] {
				log.Debug().Int("pages", pageCount).Str("last", page.URI).Msg("Pagination complete")
				reporter.complete()
				return
			}

			if collectOptions.maxPages > 0 && pageCount >= collectOptions.maxPages {
				yield(nil, &ctdf.IncompleteDataError{
					Pages:   pageCount,
					Horizon: collectOptions.progressTarget,
					Reached: page.EarliestDeparture(),
				})
				return
			}

			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err = p.source.FetchPage(ctx, page.Previous)
		}
	}
}

type progressReporter struct {
	start    time.Time
	target   time.Time
	callback func(percent int)
	last     int
}

func newProgressReporter(start time.Time, options *collectOptions) *progressReporter {
	return &progressReporter{
		start:    start,
		target:   options.progressTarget,
		callback: options.progress,
		last:     -minimumProgressIncrement,
	}
}

func (r *progressReporter) update(reached time.Time) {
	if r.callback == nil || r.target.IsZero() {
		return
	}

	span := r.start.Sub(r.target)
	percent := 100
	if span > 0 {
		percent = int(100 * r.start.Sub(reached) / span)
	}
	percent = max(0, min(percent, 100))

	if percent-r.last >= minimumProgressIncrement {
		r.last = percent
		r.callback(percent)
	}
}

func (r *progressReporter) complete() {
	if r.callback != nil && r.last < 100 {
		r.last = 100
		r.callback(100)
	}
}
