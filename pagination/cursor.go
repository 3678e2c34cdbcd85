package pagination

import "strconv"

const (
	// DefaultPageSize is requested on every page and assumed when the
	// response does not report max_results.
	DefaultPageSize = 500
	// CursorSentinel is the cursor value sent on the first request.
	CursorSentinel = "new"
	FirstPage      = 1
)

// CursorState is the paging position between two fetches. It is a value
// type: Next derives a new state and never mutates the receiver.
type CursorState struct {
	Cursor    string
	HasCursor bool
	Page      int
	Total     float64
	HasTotal  bool
}

func InitialCursorState() CursorState {
	return CursorState{
		Cursor:    CursorSentinel,
		HasCursor: true,
		Page:      FirstPage,
	}
}

// Query is the paging overlay for the request described by s.
func (s CursorState) Query() map[string]string {
	query := map[string]string{
		"max_results": strconv.Itoa(DefaultPageSize),
		"page":        strconv.Itoa(s.Page),
	}
	if s.HasCursor && s.Cursor != "" {
		query["cursor"] = s.Cursor
	}
	return query
}

// Absorb folds a page's _meta into the state: a numeric total is
// remembered, a non-empty cursor is adopted, and the initial sentinel is
// dropped when the server does not hand back a cursor.
func (s CursorState) Absorb(meta map[string]any) CursorState {
	next := s
	if total, ok := asNumber(meta["total"]); ok {
		next.Total = total
		next.HasTotal = true
	}
	if cursor, ok := meta["cursor"].(string); ok && cursor != "" {
		next.Cursor = cursor
		next.HasCursor = true
	} else if next.Cursor == CursorSentinel {
		next.Cursor = ""
		next.HasCursor = false
	}
	return next
}

// Next decides whether another page is needed after a page with itemCount
// logical items and returns the state to request it with.
func (s CursorState) Next(meta map[string]any, itemCount int) (CursorState, bool) {
	if itemCount == 0 || !s.HasCursor || s.Cursor == "" {
		return s, false
	}

	pageSize := float64(DefaultPageSize)
	if value, ok := asNumber(meta["max_results"]); ok {
		pageSize = value
	}
	currentPage := float64(s.Page)
	if value, ok := asNumber(meta["page"]); ok {
		currentPage = value
	}

	if s.HasTotal {
		if currentPage*pageSize >= s.Total {
			return s, false
		}
	} else if itemCount < DefaultPageSize {
		return s, false
	}

	nextPage := int(currentPage)
	if nextPage < s.Page {
		nextPage = s.Page
	}
	next := s
	next.Page = nextPage + 1
	return next, true
}

func asNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case interface{ Float64() (float64, error) }:
		number, err := typed.Float64()
		return number, err == nil
	default:
		return 0, false
	}
}
