package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-deliverect/core"
	"github.com/goliatone/go-deliverect/webhooks"
)

type OperationExecutor interface {
	Execute(ctx context.Context, req core.OperationRequest) ([]core.Record, error)
}

type WebhookHandler interface {
	HandleWebhook(ctx context.Context, envelope core.WebhookEnvelope) (webhooks.ClassifiedEvent, error)
}

type ExecuteOperationCommand struct {
	executor OperationExecutor
}

func NewExecuteOperationCommand(executor OperationExecutor) *ExecuteOperationCommand {
	return &ExecuteOperationCommand{executor: executor}
}

func (c *ExecuteOperationCommand) Execute(ctx context.Context, msg ExecuteOperationMessage) error {
	if c == nil || c.executor == nil {
		return commandDependencyError("command: operation executor is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	records, err := c.executor.Execute(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, records)
	return nil
}

type HandleWebhookCommand struct {
	handler WebhookHandler
}

func NewHandleWebhookCommand(handler WebhookHandler) *HandleWebhookCommand {
	return &HandleWebhookCommand{handler: handler}
}

func (c *HandleWebhookCommand) Execute(ctx context.Context, msg HandleWebhookMessage) error {
	if c == nil || c.handler == nil {
		return commandDependencyError("command: webhook handler is required")
	}
	event, err := c.handler.HandleWebhook(ctx, msg.Envelope)
	if err != nil {
		return err
	}
	storeResult(ctx, event)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
