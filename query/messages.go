package query

import (
	"fmt"
	"strings"
)

const (
	TypeListOperations = "deliverect.query.operations.list"
	TypeGetOperation   = "deliverect.query.operations.get"
)

// ListOperationsMessage filters by resource when set. Internal operations
// are hidden unless IncludeInternal is true.
type ListOperationsMessage struct {
	Resource        string
	IncludeInternal bool
}

func (ListOperationsMessage) Type() string { return TypeListOperations }

func (ListOperationsMessage) Validate() error { return nil }

type GetOperationMessage struct {
	Resource  string
	Operation string
}

func (GetOperationMessage) Type() string { return TypeGetOperation }

func (m GetOperationMessage) Validate() error {
	if strings.TrimSpace(m.Resource) == "" {
		return fmt.Errorf("query: resource is required")
	}
	if strings.TrimSpace(m.Operation) == "" {
		return fmt.Errorf("query: operation is required")
	}
	return nil
}
