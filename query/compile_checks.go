package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-deliverect/core"
)

var (
	_ gocmd.Querier[ListOperationsMessage, []core.OperationDescriptor] = (*ListOperationsQuery)(nil)
	_ gocmd.Querier[GetOperationMessage, core.OperationDescriptor]     = (*GetOperationQuery)(nil)
)
