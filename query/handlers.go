package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-deliverect/core"
)

type OperationLister interface {
	Operations() []core.OperationDescriptor
}

type ListOperationsQuery struct {
	lister OperationLister
}

func NewListOperationsQuery(lister OperationLister) *ListOperationsQuery {
	return &ListOperationsQuery{lister: lister}
}

func (q *ListOperationsQuery) Query(_ context.Context, msg ListOperationsMessage) ([]core.OperationDescriptor, error) {
	if q == nil || q.lister == nil {
		return nil, queryDependencyError("query: operation lister is required")
	}
	resource := strings.TrimSpace(msg.Resource)
	out := []core.OperationDescriptor{}
	for _, op := range q.lister.Operations() {
		if resource != "" && op.Resource != resource {
			continue
		}
		if op.Internal && !msg.IncludeInternal {
			continue
		}
		out = append(out, op)
	}
	return out, nil
}

type GetOperationQuery struct {
	lister OperationLister
}

func NewGetOperationQuery(lister OperationLister) *GetOperationQuery {
	return &GetOperationQuery{lister: lister}
}

func (q *GetOperationQuery) Query(_ context.Context, msg GetOperationMessage) (core.OperationDescriptor, error) {
	if q == nil || q.lister == nil {
		return core.OperationDescriptor{}, queryDependencyError("query: operation lister is required")
	}
	if err := msg.Validate(); err != nil {
		return core.OperationDescriptor{}, err
	}
	resource := strings.TrimSpace(msg.Resource)
	name := strings.TrimSpace(msg.Operation)
	for _, op := range q.lister.Operations() {
		if op.Resource == resource && op.Name == name {
			return op, nil
		}
	}
	return core.OperationDescriptor{}, queryNotFoundError(resource, name)
}
