package query

import (
	"net/http"

	"github.com/goliatone/go-deliverect/core"
	goerrors "github.com/goliatone/go-errors"
)

func queryDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorInternal)
}

func queryNotFoundError(resource string, name string) error {
	return goerrors.New("query: unknown operation "+resource+"/"+name, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.ErrorOperationNotFound).
		WithMetadata(map[string]any{"resource": resource, "operation": name})
}
