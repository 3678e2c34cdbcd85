package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/goliatone/go-deliverect/core"
	"github.com/goliatone/go-deliverect/pagination"
	goerrors "github.com/goliatone/go-errors"
)

// RecordFetcher turns one page request into records through a
// TransportAdapter. It is the page-fetch primitive behind the aggregator.
type RecordFetcher struct {
	Adapter core.TransportAdapter
	Timeout time.Duration
}

func NewRecordFetcher(adapter core.TransportAdapter, timeout time.Duration) *RecordFetcher {
	return &RecordFetcher{Adapter: adapter, Timeout: timeout}
}

func (f *RecordFetcher) FetchPage(ctx context.Context, req pagination.PageRequestTemplate) ([]core.Record, error) {
	if f == nil || f.Adapter == nil {
		return nil, transportError(
			"transport: record fetcher requires an adapter",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	body, err := req.EncodeBody()
	if err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: encode request body",
			http.StatusBadRequest,
			map[string]any{"method": req.HTTPMethod()},
		)
	}

	res, err := f.Adapter.Do(ctx, core.TransportRequest{
		Method:  req.HTTPMethod(),
		URL:     req.URL,
		Headers: req.Headers,
		Query:   req.Query,
		Body:    body,
		Timeout: f.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, core.UpstreamRequestFailedError(res.StatusCode, string(res.Body))
	}
	return DecodeRecords(res.Body)
}

// DecodeRecords maps a JSON response body onto records: arrays yield one
// record per element, an object yields one record, an empty body yields
// none and scalars are wrapped under "value".
func DecodeRecords(payload []byte) ([]core.Record, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return []core.Record{}, nil
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode response body",
			http.StatusBadGateway,
			map[string]any{"bytes": len(payload)},
		)
	}
	switch typed := decoded.(type) {
	case []any:
		records := make([]core.Record, 0, len(typed))
		for _, item := range typed {
			records = append(records, asRecord(item))
		}
		return records, nil
	case nil:
		return []core.Record{}, nil
	default:
		return []core.Record{asRecord(typed)}, nil
	}
}

func asRecord(value any) core.Record {
	if record, ok := value.(map[string]any); ok {
		return record
	}
	return core.Record{"value": value}
}

var _ pagination.PageFetcher = (*RecordFetcher)(nil)
