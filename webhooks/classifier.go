package webhooks

import "math"

type EventType string

const (
	EventNewOrder      EventType = "newOrder"
	EventStatusUpdate  EventType = "statusUpdate"
	EventCourierUpdate EventType = "courierUpdate"
	EventUnknown       EventType = "unknown"
)

func (e EventType) String() string {
	return string(e)
}

// Classify inspects the body shape. Checks run in a fixed order and the
// first match wins, since a body may satisfy more than one shape.
func Classify(body map[string]any) EventType {
	switch {
	case truthy(body["_id"]) && truthy(body["items"]):
		return EventNewOrder
	case truthy(body["orderId"]) && hasKey(body, "status") && truthy(body["timeStamp"]):
		return EventStatusUpdate
	case truthy(body["orderId"]) && truthy(body["courier"]):
		return EventCourierUpdate
	default:
		return EventUnknown
	}
}

func hasKey(body map[string]any, key string) bool {
	_, ok := body[key]
	return ok
}

// truthy follows JSON-value truthiness: null, false, zero and the empty
// string are false; any array or object, even empty, is true.
func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case float64:
		return typed != 0 && !math.IsNaN(typed)
	case float32:
		return typed != 0 && !math.IsNaN(float64(typed))
	case int:
		return typed != 0
	case int64:
		return typed != 0
	case int32:
		return typed != 0
	default:
		return true
	}
}
