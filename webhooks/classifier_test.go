package webhooks

import "testing"

func TestClassify_PrecedenceFavoursNewOrder(t *testing.T) {
	body := map[string]any{
		"_id":     "o1",
		"items":   []any{map[string]any{"name": "Pizza"}},
		"orderId": "o1",
		"courier": map[string]any{"name": "Bob"},
	}
	if got := Classify(body); got != EventNewOrder {
		t.Fatalf("expected newOrder to win, got %q", got)
	}
}

func TestClassify_Shapes(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		want EventType
	}{
		{"new order with empty items", map[string]any{"_id": "o1", "items": []any{}}, EventNewOrder},
		{"status update", map[string]any{"orderId": "o1", "status": float64(20), "timeStamp": "t"}, EventStatusUpdate},
		{"status present but null", map[string]any{"orderId": "o1", "status": nil, "timeStamp": "t"}, EventStatusUpdate},
		{"status missing", map[string]any{"orderId": "o1", "timeStamp": "t"}, EventUnknown},
		{"courier update", map[string]any{"orderId": "o1", "courier": map[string]any{}}, EventCourierUpdate},
		{"status beats courier", map[string]any{"orderId": "o1", "status": "x", "timeStamp": "t", "courier": "c"}, EventStatusUpdate},
		{"falsy id", map[string]any{"_id": "", "items": []any{}}, EventUnknown},
		{"zero order id", map[string]any{"orderId": float64(0), "courier": "c"}, EventUnknown},
		{"false courier", map[string]any{"orderId": "o1", "courier": false}, EventUnknown},
		{"nothing", map[string]any{"hello": "world"}, EventUnknown},
		{"nil", nil, EventUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.body); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestSignatureVerifier_RoundTrip(t *testing.T) {
	body := []byte(`{"_id":"o1","items":[]}`)
	verifier := SignatureVerifier{Secret: "s1"}
	if err := verifier.Verify(body, SignHex("s1", body)); err != nil {
		t.Fatalf("expected round trip to verify: %v", err)
	}
	if err := verifier.Verify(body, SignHex("s2", body)); err == nil {
		t.Fatalf("expected digest from another secret to fail")
	}
}
