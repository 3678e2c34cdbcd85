package deliverect

import (
	"fmt"

	deliverectcommand "github.com/goliatone/go-deliverect/command"
	deliverectquery "github.com/goliatone/go-deliverect/query"
)

type CommandQueryService interface {
	deliverectcommand.OperationExecutor
	deliverectcommand.WebhookHandler
	deliverectquery.OperationLister
}

type Commands struct {
	ExecuteOperation *deliverectcommand.ExecuteOperationCommand
	HandleWebhook    *deliverectcommand.HandleWebhookCommand
}

type Queries struct {
	ListOperations *deliverectquery.ListOperationsQuery
	GetOperation   *deliverectquery.GetOperationQuery
}

// Facade bundles go-command handlers bound to one service.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("deliverect: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			ExecuteOperation: deliverectcommand.NewExecuteOperationCommand(service),
			HandleWebhook:    deliverectcommand.NewHandleWebhookCommand(service),
		},
		queries: Queries{
			ListOperations: deliverectquery.NewListOperationsQuery(service),
			GetOperation:   deliverectquery.NewGetOperationQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
