package query

import (
	"context"
	"testing"

	"github.com/goliatone/go-deliverect/core"
	goerrors "github.com/goliatone/go-errors"
)

type stubLister []core.OperationDescriptor

func (s stubLister) Operations() []core.OperationDescriptor {
	return append([]core.OperationDescriptor(nil), s...)
}

var testOperations = stubLister{
	{Resource: "commerceAPI", Name: "createBasket", Internal: true},
	{Resource: "commerceAPI", Name: "getBasket"},
	{Resource: "storeAPI", Name: "getStores"},
}

func TestListOperationsQuery_FiltersResourceAndInternal(t *testing.T) {
	qry := NewListOperationsQuery(testOperations)

	all, err := qry.Query(context.Background(), ListOperationsMessage{IncludeInternal: true})
	if err != nil {
		t.Fatalf("list operations: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(all))
	}

	public, err := qry.Query(context.Background(), ListOperationsMessage{Resource: "commerceAPI"})
	if err != nil {
		t.Fatalf("list operations: %v", err)
	}
	if len(public) != 1 || public[0].Name != "getBasket" {
		t.Fatalf("unexpected commerce operations: %#v", public)
	}
}

func TestGetOperationQuery_LooksUpDescriptor(t *testing.T) {
	qry := NewGetOperationQuery(testOperations)

	op, err := qry.Query(context.Background(), GetOperationMessage{Resource: "storeAPI", Operation: "getStores"})
	if err != nil {
		t.Fatalf("get operation: %v", err)
	}
	if op.Name != "getStores" {
		t.Fatalf("unexpected descriptor: %#v", op)
	}

	_, err = qry.Query(context.Background(), GetOperationMessage{Resource: "storeAPI", Operation: "missing"})
	if !core.IsKind(err, core.ErrorOperationNotFound) {
		t.Fatalf("expected operation not found, got %v", err)
	}

	if _, err := qry.Query(context.Background(), GetOperationMessage{Resource: "storeAPI"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestQueries_NilDependencyReturnsRichError(t *testing.T) {
	var qry *ListOperationsQuery
	_, err := qry.Query(context.Background(), ListOperationsMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
