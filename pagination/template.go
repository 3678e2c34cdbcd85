package pagination

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

// PageRequestTemplate describes one list request. It is treated as
// immutable: every page is fetched from a clone with the paging query
// overlaid.
type PageRequestTemplate struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    any
}

func (t PageRequestTemplate) Clone() PageRequestTemplate {
	return PageRequestTemplate{
		Method:  t.Method,
		URL:     t.URL,
		Headers: cloneStrings(t.Headers),
		Query:   cloneStrings(t.Query),
		Body:    cloneValue(t.Body),
	}
}

// WithQuery returns a clone with overlay applied on top of Query.
func (t PageRequestTemplate) WithQuery(overlay map[string]string) PageRequestTemplate {
	out := t.Clone()
	if out.Query == nil {
		out.Query = make(map[string]string, len(overlay))
	}
	for key, value := range overlay {
		out.Query[key] = value
	}
	return out
}

func (t PageRequestTemplate) HTTPMethod() string {
	method := strings.ToUpper(strings.TrimSpace(t.Method))
	if method == "" {
		return http.MethodGet
	}
	return method
}

// EncodeBody renders Body as JSON; raw bytes and strings pass through.
func (t PageRequestTemplate) EncodeBody() ([]byte, error) {
	switch typed := t.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return append([]byte(nil), typed...), nil
	case string:
		return []byte(typed), nil
	case json.RawMessage:
		return append([]byte(nil), typed...), nil
	}
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(t.Body); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = cloneValue(typed[i])
		}
		return out
	case []byte:
		return append([]byte(nil), typed...)
	default:
		return value
	}
}
