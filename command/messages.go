package command

import (
	"strings"

	"github.com/goliatone/go-deliverect/core"
)

const (
	TypeExecuteOperation = "deliverect.command.operation.execute"
	TypeHandleWebhook    = "deliverect.command.webhook.handle"
)

type ExecuteOperationMessage struct {
	Request core.OperationRequest
}

func (ExecuteOperationMessage) Type() string { return TypeExecuteOperation }

func (m ExecuteOperationMessage) Validate() error {
	if strings.TrimSpace(m.Request.Resource) == "" {
		return commandValidationError("resource", "resource is required")
	}
	if strings.TrimSpace(m.Request.Operation) == "" {
		return commandValidationError("operation", "operation is required")
	}
	return nil
}

type HandleWebhookMessage struct {
	Envelope core.WebhookEnvelope
}

func (HandleWebhookMessage) Type() string { return TypeHandleWebhook }

// Validate rejects an empty body with the same error the handler raises.
func (m HandleWebhookMessage) Validate() error {
	if len(m.Envelope.Body) == 0 {
		return core.NoDataError()
	}
	return nil
}
