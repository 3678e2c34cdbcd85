package pagination

import "testing"

func TestCursorState_AbsorbDropsSentinelWithoutServerCursor(t *testing.T) {
	state := InitialCursorState().Absorb(map[string]any{"total": float64(10)})
	if state.HasCursor || state.Cursor != "" {
		t.Fatalf("expected sentinel cursor to be cleared, got %#v", state)
	}
	if !state.HasTotal || state.Total != 10 {
		t.Fatalf("expected total to be remembered, got %#v", state)
	}
	if _, ok := state.Query()["cursor"]; ok {
		t.Fatalf("expected cursor to be omitted from query once cleared")
	}
}

func TestCursorState_AbsorbKeepsPreviousRealCursor(t *testing.T) {
	state := InitialCursorState().Absorb(map[string]any{"cursor": "c1"})
	state = state.Absorb(map[string]any{"cursor": ""})
	if state.Cursor != "c1" {
		t.Fatalf("expected previous cursor to be kept, got %q", state.Cursor)
	}
}

func TestCursorState_NextStopsAtTotal(t *testing.T) {
	state := InitialCursorState().Absorb(map[string]any{"cursor": "c1", "total": float64(40)})
	if _, more := state.Next(map[string]any{"max_results": float64(20), "page": float64(2)}, 20); more {
		t.Fatalf("expected to stop when page*size reaches total")
	}
	next, more := state.Next(map[string]any{"max_results": float64(20), "page": float64(1)}, 20)
	if !more || next.Page != 2 {
		t.Fatalf("expected next page 2, got more=%v state=%#v", more, next)
	}
}

func TestCursorState_IsAValue(t *testing.T) {
	base := InitialCursorState()
	_ = base.Absorb(map[string]any{"cursor": "c9"})
	if base.Cursor != CursorSentinel {
		t.Fatalf("expected Absorb not to mutate receiver")
	}
}

func TestPageRequestTemplate_CloneIsDeep(t *testing.T) {
	template := PageRequestTemplate{
		Headers: map[string]string{"Accept": "application/json"},
		Body:    map[string]any{"items": []any{map[string]any{"plu": "P1"}}},
	}
	clone := template.Clone()
	clone.Headers["Accept"] = "text/plain"
	clone.Body.(map[string]any)["items"].([]any)[0].(map[string]any)["plu"] = "P2"
	if template.Headers["Accept"] != "application/json" {
		t.Fatalf("expected headers to be copied")
	}
	if template.Body.(map[string]any)["items"].([]any)[0].(map[string]any)["plu"] != "P1" {
		t.Fatalf("expected body to be deep copied")
	}
}

func TestPageRequestTemplate_EncodeBody(t *testing.T) {
	body, err := PageRequestTemplate{Body: map[string]any{"url": "https://x/?a=1&b=2"}}.EncodeBody()
	if err != nil {
		t.Fatalf("encode body: %v", err)
	}
	if string(body) != `{"url":"https://x/?a=1&b=2"}` {
		t.Fatalf("unexpected body %s", body)
	}
	if body, _ := (PageRequestTemplate{}).EncodeBody(); body != nil {
		t.Fatalf("expected nil body for nil payload")
	}
	if (PageRequestTemplate{}).HTTPMethod() != "GET" {
		t.Fatalf("expected GET default method")
	}
}
