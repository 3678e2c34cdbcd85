package transport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-deliverect/core"
	"github.com/goliatone/go-deliverect/pagination"
	"github.com/goliatone/go-deliverect/transport/transporttest"
	goerrors "github.com/goliatone/go-errors"
)

func TestRecordFetcher_DecodesShapes(t *testing.T) {
	adapter := transporttest.NewAdapter(
		transporttest.JSON(http.StatusOK, []any{map[string]any{"id": "a"}, "loose"}),
		transporttest.JSON(http.StatusOK, map[string]any{"_items": []any{}, "_meta": map[string]any{}}),
		transporttest.Script{Response: core.TransportResponse{StatusCode: http.StatusNoContent}},
	)
	fetcher := NewRecordFetcher(adapter, 0)
	ctx := context.Background()

	records, err := fetcher.FetchPage(ctx, pagination.PageRequestTemplate{URL: "https://api.deliverect.com/x"})
	if err != nil {
		t.Fatalf("fetch array: %v", err)
	}
	if len(records) != 2 || records[0]["id"] != "a" || records[1]["value"] != "loose" {
		t.Fatalf("unexpected array records %#v", records)
	}

	records, err = fetcher.FetchPage(ctx, pagination.PageRequestTemplate{URL: "https://api.deliverect.com/x"})
	if err != nil {
		t.Fatalf("fetch object: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected wrapper object as one record, got %d", len(records))
	}
	if _, ok := records[0]["_items"]; !ok {
		t.Fatalf("expected _items to be preserved for the aggregator")
	}

	records, err = fetcher.FetchPage(ctx, pagination.PageRequestTemplate{URL: "https://api.deliverect.com/x"})
	if err != nil {
		t.Fatalf("fetch empty: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records for empty body")
	}
}

func TestRecordFetcher_ForwardsTemplate(t *testing.T) {
	adapter := transporttest.NewAdapter(transporttest.JSON(http.StatusOK, []any{}))
	fetcher := NewRecordFetcher(adapter, 0)

	_, err := fetcher.FetchPage(context.Background(), pagination.PageRequestTemplate{
		Method:  http.MethodPost,
		URL:     "https://api.deliverect.com/products",
		Headers: map[string]string{"Authorization": "Bearer t"},
		Query:   map[string]string{"page": "2"},
		Body:    map[string]any{"accountId": "a1"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	req := adapter.Requests()[0]
	if req.Method != http.MethodPost || req.Query["page"] != "2" || req.Headers["Authorization"] != "Bearer t" {
		t.Fatalf("unexpected forwarded request %#v", req)
	}
	if string(req.Body) != `{"accountId":"a1"}` {
		t.Fatalf("unexpected body %s", req.Body)
	}
}

func TestRecordFetcher_UpstreamFailure(t *testing.T) {
	adapter := transporttest.NewAdapter(transporttest.JSON(http.StatusUnauthorized, map[string]any{"message": "bad token"}))
	_, err := NewRecordFetcher(adapter, 0).FetchPage(context.Background(), pagination.PageRequestTemplate{URL: "https://x"})
	if !core.IsKind(err, core.ErrorUpstreamRequestFailed) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Code != http.StatusUnauthorized {
		t.Fatalf("expected upstream status on envelope, got %v", err)
	}
}

func TestRecordFetcher_PropagatesAdapterError(t *testing.T) {
	sentinel := errors.New("dial tcp: refused")
	adapter := transporttest.NewAdapter(transporttest.Failure(sentinel))
	_, err := NewRecordFetcher(adapter, 0).FetchPage(context.Background(), pagination.PageRequestTemplate{URL: "https://x"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected adapter error, got %v", err)
	}
}

func TestDecodeRecords_RejectsMalformed(t *testing.T) {
	if _, err := DecodeRecords([]byte(`{"broken"`)); !core.IsKind(err, core.ErrorUpstreamRequestFailed) {
		t.Fatalf("expected decode failure, got %v", err)
	}
	records, err := DecodeRecords([]byte(`42`))
	if err != nil || records[0]["value"] != float64(42) {
		t.Fatalf("expected scalar wrapped, got %#v %v", records, err)
	}
}

func TestRecordFetcher_WithAggregator(t *testing.T) {
	adapter := transporttest.NewAdapter(
		transporttest.JSON(http.StatusOK, map[string]any{
			"_items": []any{map[string]any{"plu": "P1"}},
			"_meta":  map[string]any{"total": 1, "page": 1, "max_results": 500, "cursor": "c1"},
		}),
	)
	records, err := pagination.Aggregate(context.Background(),
		pagination.PageRequestTemplate{URL: "https://api.deliverect.com/products"},
		NewRecordFetcher(adapter, 0))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(records) != 1 || records[0]["plu"] != "P1" {
		t.Fatalf("unexpected records %#v", records)
	}
	if len(adapter.Requests()) != 1 {
		t.Fatalf("expected one request, got %d", len(adapter.Requests()))
	}
}
