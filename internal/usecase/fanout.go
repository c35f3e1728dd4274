package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sourcegraph/conc/pool"

	"DailyBrief/internal/domain"
	"DailyBrief/internal/metrics"
	"DailyBrief/internal/ports"
)

// SourceFetchError reports one source that failed or timed out. Generation
// continues without its items.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

type fetchResult struct {
	items []domain.ContentItem
	err   error
}

// fanOut fetches every source concurrently, each under its own deadline.
type fanOut struct {
	sources []ports.ContentSource
	timeout time.Duration
	width   int
	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// gather returns the merged candidate pool in source order. The returned error
// joins every SourceFetchError and is informational only.
func (f *fanOut) gather(ctx context.Context, since time.Time) ([]domain.ContentItem, error) {
	if len(f.sources) == 0 {
		return []domain.ContentItem{}, nil
	}

	width := f.width
	if width <= 0 || width > len(f.sources) {
		width = len(f.sources)
	}

	batches := make([][]domain.ContentItem, len(f.sources))
	p := pool.New().WithMaxGoroutines(width).WithContext(ctx)
	for i, src := range f.sources {
		p.Go(func(ctx context.Context) error {
			items, err := f.fetchOne(ctx, src, since)
			if err != nil {
				return &SourceFetchError{Source: src.Name(), Err: err}
			}
			batches[i] = items
			return nil
		})
	}

	err := p.Wait()
	return f.normalize(batches), err
}

func (f *fanOut) fetchOne(ctx context.Context, src ports.ContentSource, since time.Time) ([]domain.ContentItem, error) {
	fetchCtx, cancel := ctx, context.CancelFunc(func() {})
	if f.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}
	defer cancel()

	started := f.clock.Now()
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		items, err := src.FetchRecent(fetchCtx, since)
		done <- fetchResult{items: items, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-fetchCtx.Done():
		res = fetchResult{err: fetchCtx.Err()}
	}

	f.metrics.ObserveFetch(src.Name(), f.clock.Now().Sub(started), res.err)
	if res.err != nil {
		f.logger.Warn("source fetch failed", "source", src.Name(), "error", res.err)
		return nil, res.err
	}

	f.logger.Debug("source fetched", "source", src.Name(), "count", len(res.items))
	return res.items, nil
}

// normalize flattens batches, drops malformed items and keeps the first copy of each id.
func (f *fanOut) normalize(batches [][]domain.ContentItem) []domain.ContentItem {
	candidates := make([]domain.ContentItem, 0)
	seen := map[string]struct{}{}

	for _, batch := range batches {
		for _, item := range batch {
			if !item.WellFormed() {
				f.logger.Debug("drop malformed item", "id", item.ID, "source", item.SourceID, "type", item.ContentType)
				continue
			}
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			candidates = append(candidates, item)
		}
	}

	return candidates
}
