package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ExecuteOperationMessage] = (*ExecuteOperationCommand)(nil)
	_ gocmd.Commander[HandleWebhookMessage]    = (*HandleWebhookCommand)(nil)
)
