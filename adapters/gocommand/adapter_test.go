package gocommand

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-command"
	deliverect "github.com/goliatone/go-deliverect"
	deliverectcommand "github.com/goliatone/go-deliverect/command"
	"github.com/goliatone/go-deliverect/core"
	deliverectquery "github.com/goliatone/go-deliverect/query"
	"github.com/goliatone/go-deliverect/transport/transporttest"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

type okMessage struct{}

func (okMessage) Type() string { return "deliverect.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "deliverect.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "deliverect.command.test" }

type queueMessage struct{}

func (queueMessage) Type() string { return "deliverect.command.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("deliverect.command.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

type fixedToken string

func (f fixedToken) Token(context.Context, core.Credentials) (string, error) {
	return string(f), nil
}

func TestRegisterFacade_DispatchesCommandsAndQueries(t *testing.T) {
	cfg := deliverect.DefaultConfig()
	cfg.BaseURL = "https://deliverect.test"
	adapterStub := transporttest.NewAdapter(transporttest.JSON(http.StatusOK, map[string]any{"_id": "u1"}))
	svc, err := deliverect.NewService(cfg,
		deliverect.WithTransport(adapterStub),
		deliverect.WithTokenSource(fixedToken("tok")),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	facade, err := deliverect.NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	adapter := NewRegistryAdapter(command.NewRegistry())
	subscriptions, err := RegisterFacade(adapter, facade)
	if err != nil {
		t.Fatalf("register facade: %v", err)
	}
	defer subscriptions.Unsubscribe()
	if len(subscriptions) != 4 {
		t.Fatalf("expected 4 subscriptions, got %d", len(subscriptions))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	records, err := DispatchWithResult[deliverectcommand.ExecuteOperationMessage, []core.Record](
		context.Background(),
		deliverectcommand.ExecuteOperationMessage{Request: core.OperationRequest{Resource: "userAPI", Operation: "getOwnAccount"}},
	)
	if err != nil {
		t.Fatalf("dispatch execute: %v", err)
	}
	if len(records) != 1 || records[0]["_id"] != "u1" {
		t.Fatalf("unexpected records %#v", records)
	}

	ops, err := Query[deliverectquery.ListOperationsMessage, []core.OperationDescriptor](
		context.Background(),
		deliverectquery.ListOperationsMessage{Resource: "userAPI"},
	)
	if err != nil {
		t.Fatalf("query operations: %v", err)
	}
	if len(ops) != 1 || ops[0].Name != "getOwnAccount" {
		t.Fatalf("unexpected operations %#v", ops)
	}

	if err := Dispatch(context.Background(), deliverectcommand.ExecuteOperationMessage{}); err == nil {
		t.Fatalf("expected contract validation to reject an empty request")
	}
}

func TestRegisterFacade_RequiresFacade(t *testing.T) {
	if _, err := RegisterFacade(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected nil facade error")
	}
}
