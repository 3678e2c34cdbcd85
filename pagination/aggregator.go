package pagination

import (
	"context"
	"time"

	"github.com/goliatone/go-deliverect/core"
	glog "github.com/goliatone/go-logger/glog"
)

// PageFetcher performs exactly one HTTP request for one page. It must not
// retry; errors are surfaced to the caller of Aggregate unchanged.
type PageFetcher interface {
	FetchPage(ctx context.Context, req PageRequestTemplate) ([]core.Record, error)
}

type PageFetchFunc func(ctx context.Context, req PageRequestTemplate) ([]core.Record, error)

func (f PageFetchFunc) FetchPage(ctx context.Context, req PageRequestTemplate) ([]core.Record, error) {
	return f(ctx, req)
}

// Aggregator walks every page of a list endpoint. The zero value is ready
// to use.
//
// There is no page cap: termination relies on the server eventually
// returning an empty page, no cursor, a short page, or a page that reaches
// the reported total.
type Aggregator struct {
	Logger  core.Logger
	Metrics core.MetricsRecorder
}

func NewAggregator(logger core.Logger, metrics core.MetricsRecorder) *Aggregator {
	return &Aggregator{Logger: logger, Metrics: metrics}
}

// Aggregate is a convenience wrapper around a zero Aggregator.
func Aggregate(ctx context.Context, template PageRequestTemplate, fetch PageFetcher) ([]core.Record, error) {
	return (&Aggregator{}).Aggregate(ctx, template, fetch)
}

// Aggregate fetches pages until a stop condition holds and returns every
// logical item in page order. On any error the partial result is dropped.
func (a *Aggregator) Aggregate(ctx context.Context, template PageRequestTemplate, fetch PageFetcher) ([]core.Record, error) {
	if fetch == nil {
		return nil, core.BadInputError("pagination: page fetcher is required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	startedAt := time.Now()
	state := InitialCursorState()
	results := []core.Record{}
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			a.observe(ctx, startedAt, pages, 0, err)
			return nil, err
		}

		page, err := fetch.FetchPage(ctx, template.WithQuery(state.Query()))
		if err != nil {
			a.observe(ctx, startedAt, pages, 0, err)
			return nil, err
		}
		pages++
		if len(page) == 0 {
			break
		}

		items, meta := splitPage(page)
		results = append(results, items...)
		a.logger().Debug("deliverect page fetched",
			"page", state.Page,
			"items", len(items),
			"aggregated", len(results),
		)

		state = state.Absorb(meta)
		next, more := state.Next(meta, len(items))
		if !more {
			break
		}
		state = next
	}

	a.observe(ctx, startedAt, pages, len(results), nil)
	return results, nil
}

// splitPage returns the page's logical items and its _meta. A page whose
// first record carries an "_items" array is a wrapper page; anything else
// is a flat list of items.
func splitPage(page []core.Record) ([]core.Record, map[string]any) {
	first := page[0]
	meta, _ := first["_meta"].(map[string]any)
	switch rawItems := first["_items"].(type) {
	case []core.Record:
		return append([]core.Record(nil), rawItems...), meta
	case []any:
		items := make([]core.Record, 0, len(rawItems))
		for _, raw := range rawItems {
			if record, ok := raw.(map[string]any); ok {
				items = append(items, record)
				continue
			}
			items = append(items, core.Record{"value": raw})
		}
		return items, meta
	default:
		return page, nil
	}
}

func (a *Aggregator) observe(ctx context.Context, startedAt time.Time, pages int, items int, err error) {
	core.NewObserver(a.logger(), a.Metrics).Observe(ctx, startedAt, "paginate", err, map[string]any{
		"pages": pages,
		"items": items,
	})
}

func (a *Aggregator) logger() core.Logger {
	if a == nil || a.Logger == nil {
		return glog.Nop()
	}
	return a.Logger
}
