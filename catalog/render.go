package catalog

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/goliatone/go-deliverect/core"
	"github.com/goliatone/go-deliverect/pagination"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Render builds the request template for op against baseURL. Path
// placeholders are path-escaped; a missing placeholder is a bad-input error.
func Render(op Operation, baseURL string, params Params) (pagination.PageRequestTemplate, error) {
	path, err := renderPath(op.Path, params)
	if err != nil {
		return pagination.PageRequestTemplate{}, err
	}

	query := map[string]string{}
	if len(op.Projection) > 0 && !params.Bool("fetchFullPayload", false) {
		encoded, err := encodeJSON(op.Projection)
		if err != nil {
			return pagination.PageRequestTemplate{}, core.BadInputError("catalog: encode projection", map[string]any{"error": err.Error()})
		}
		query["projection"] = encoded
	}

	var body any
	if op.Prepare != nil {
		prepared, err := op.Prepare(params)
		if err != nil {
			return pagination.PageRequestTemplate{}, err
		}
		for key, value := range prepared.Query {
			query[key] = value
		}
		body = prepared.Body
	}

	return pagination.PageRequestTemplate{
		Method:  op.Method,
		URL:     strings.TrimRight(strings.TrimSpace(baseURL), "/") + path,
		Headers: map[string]string{},
		Query:   query,
		Body:    body,
	}, nil
}

func renderPath(path string, params Params) (string, error) {
	var missing string
	rendered := placeholderPattern.ReplaceAllStringFunc(path, func(match string) string {
		name := match[1 : len(match)-1]
		value := params.String(name)
		if value == "" && missing == "" {
			missing = name
		}
		return url.PathEscape(value)
	})
	if missing != "" {
		return "", missingParamError(missing)
	}
	return rendered, nil
}

// whereQuery encodes a Deliverect "where" filter.
func whereQuery(filter map[string]any) (map[string]string, error) {
	encoded, err := encodeJSON(filter)
	if err != nil {
		return nil, core.BadInputError("catalog: encode where filter", map[string]any{"error": err.Error()})
	}
	return map[string]string{"where": encoded}, nil
}

// accountWhere prepares the common {"account": <account>} filter.
func accountWhere(params Params) (Request, error) {
	account, err := params.Required("account")
	if err != nil {
		return Request{}, err
	}
	query, err := whereQuery(map[string]any{"account": account})
	if err != nil {
		return Request{}, err
	}
	return Request{Query: query}, nil
}

// jsonBody prepares a body from a JSON-typed parameter.
func jsonBody(name string, label string) Prepare {
	return func(params Params) (Request, error) {
		body, err := params.JSON(name, label)
		if err != nil {
			return Request{}, err
		}
		return Request{Body: body}, nil
	}
}

// requiredJSONBody is jsonBody rejecting a missing parameter.
func requiredJSONBody(name string, label string) Prepare {
	return func(params Params) (Request, error) {
		if !params.has(name) {
			return Request{}, missingParamError(name)
		}
		return jsonBody(name, label)(params)
	}
}
