package gojob

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-deliverect/core"
	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const JobIDExecuteOperation = "deliverect.operation.execute"

const (
	paramResource  = "resource"
	paramOperation = "operation"
	paramParams    = "params"
)

// ExponentialBackoff doubles from Initial up to Max.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (b ExponentialBackoff) NextDelay(attempt int) time.Duration {
	initial := b.Initial
	if initial <= 0 {
		initial = time.Second
	}
	maximum := b.Max
	if maximum <= 0 {
		maximum = 30 * time.Second
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

// RetryPolicy bounds redelivery of failed operation jobs.
type RetryPolicy struct {
	MaxAttempts     int
	Backoff         ExponentialBackoff
	DeadLetterOnMax bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		Backoff:         ExponentialBackoff{Initial: time.Second, Max: 30 * time.Second},
		DeadLetterOnMax: true,
	}
}

// NackFor maps a failed attempt to nack options. Errors that cannot succeed
// on retry go straight to the dead letter queue.
func (p RetryPolicy) NackFor(err error, attempt int) queue.NackOptions {
	reason := ""
	if err != nil {
		reason = strings.TrimSpace(err.Error())
		if code := core.TextCode(err); code != "" {
			reason = code + ": " + reason
		}
	}
	if !Retryable(err) {
		return queue.NackOptions{Disposition: queue.NackDispositionDeadLetter, Reason: reason}
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		if p.DeadLetterOnMax {
			return queue.NackOptions{Disposition: queue.NackDispositionDeadLetter, Reason: reason}
		}
		// past the budget without a dead letter queue: retry immediately
		return queue.NackOptions{Disposition: queue.NackDispositionRetry, Reason: reason}
	}
	return queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Delay:       p.Backoff.NextDelay(attempt),
		Reason:      reason,
	}
}

// Retryable reports whether err may clear on a later attempt: rate limits,
// upstream 5xx and errors without an envelope.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return true
	}
	switch richErr.TextCode {
	case core.ErrorRateLimited, core.ErrorInternal:
		return true
	case core.ErrorUpstreamRequestFailed:
		return richErr.Code == http.StatusTooManyRequests || richErr.Code >= http.StatusInternalServerError
	}
	switch richErr.Category {
	case goerrors.CategoryExternal, goerrors.CategoryRateLimit, goerrors.CategoryInternal:
		return true
	default:
		return false
	}
}

// ToExecutionMessage packs an operation request into a go-job message.
func ToExecutionMessage(req core.OperationRequest, idempotencyKey string) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      JobIDExecuteOperation,
		ScriptPath: JobIDExecuteOperation,
		Parameters: map[string]any{
			paramResource:  strings.TrimSpace(req.Resource),
			paramOperation: strings.TrimSpace(req.Operation),
			paramParams:    copyAnyMap(req.Params),
		},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
}

// FromExecutionMessage unpacks an operation request.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.OperationRequest, error) {
	if msg == nil {
		return core.OperationRequest{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDExecuteOperation {
		return core.OperationRequest{}, core.BadInputError("gojob: unexpected job id "+msg.JobID, map[string]any{"job_id": msg.JobID})
	}
	resource, _ := msg.Parameters[paramResource].(string)
	operation, _ := msg.Parameters[paramOperation].(string)
	if strings.TrimSpace(resource) == "" || strings.TrimSpace(operation) == "" {
		return core.OperationRequest{}, core.BadInputError("gojob: resource and operation are required", nil)
	}
	params, _ := msg.Parameters[paramParams].(map[string]any)
	return core.OperationRequest{
		Resource:  strings.TrimSpace(resource),
		Operation: strings.TrimSpace(operation),
		Params:    copyAnyMap(params),
	}, nil
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, req core.OperationRequest, idempotencyKey string) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(req.Resource) == "" || strings.TrimSpace(req.Operation) == "" {
		return core.BadInputError("gojob: resource and operation are required", nil)
	}
	_, err := a.enqueuer.Enqueue(ctx, ToExecutionMessage(req, idempotencyKey))
	return err
}

type OperationExecutor interface {
	Execute(ctx context.Context, req core.OperationRequest) ([]core.Record, error)
}

// Runner executes delivered operation jobs and acks or nacks them.
type Runner struct {
	executor OperationExecutor
	policy   RetryPolicy
	logger   core.Logger
}

func NewRunner(executor OperationExecutor, policy RetryPolicy, logger core.Logger) *Runner {
	if logger == nil {
		logger = glog.Nop()
	}
	return &Runner{executor: executor, policy: policy, logger: logger}
}

// Process runs one delivery. attempt is 1-based. The returned error is the
// execution failure; ack/nack failures are returned when execution passed.
func (r *Runner) Process(ctx context.Context, delivery queue.Delivery, attempt int) ([]core.Record, error) {
	if r == nil || r.executor == nil {
		return nil, fmt.Errorf("gojob: runner executor is not configured")
	}
	if delivery == nil {
		return nil, fmt.Errorf("gojob: delivery is required")
	}

	req, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		r.nack(ctx, delivery, err, attempt)
		return nil, err
	}
	records, err := r.executor.Execute(ctx, req)
	if err != nil {
		r.logger.Warn("deliverect job failed",
			"resource", req.Resource,
			"operation", req.Operation,
			"attempt", attempt,
			"error_code", core.TextCode(err),
		)
		r.nack(ctx, delivery, err, attempt)
		return nil, err
	}
	if ackErr := delivery.Ack(ctx); ackErr != nil {
		return records, ackErr
	}
	return records, nil
}

// RunOnce dequeues and processes a single delivery.
func (r *Runner) RunOnce(ctx context.Context, dequeuer queue.Dequeuer, attempt int) ([]core.Record, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	return r.Process(ctx, delivery, attempt)
}

func (r *Runner) nack(ctx context.Context, delivery queue.Delivery, cause error, attempt int) {
	opts := r.policy.NackFor(cause, attempt)
	if err := delivery.Nack(ctx, opts); err != nil {
		r.logger.Error("deliverect job nack failed", "error", err.Error())
	}
}

// ObserverHook reports go-job worker events through a core.Observer.
type ObserverHook struct {
	observer core.Observer
}

func NewObserverHook(observer core.Observer) *ObserverHook {
	return &ObserverHook{observer: observer}
}

func (h *ObserverHook) OnStart(context.Context, worker.Event) {}

func (h *ObserverHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.observe(ctx, event, nil)
}

func (h *ObserverHook) OnFailure(ctx context.Context, event worker.Event) {
	h.observe(ctx, event, event.Err)
}

func (h *ObserverHook) OnRetry(ctx context.Context, event worker.Event) {
	err := event.Err
	if err == nil {
		err = fmt.Errorf("gojob: retry scheduled")
	}
	h.observe(ctx, event, err)
}

func (h *ObserverHook) observe(ctx context.Context, event worker.Event, err error) {
	if h == nil {
		return
	}
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := map[string]any{"attempt": event.Attempt}
	if message != nil {
		fields["job_id"] = message.JobID
		fields["idempotency_key"] = message.IdempotencyKey
		if resource, ok := message.Parameters[paramResource]; ok {
			fields["resource"] = resource
		}
	}
	startedAt := event.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().Add(-event.Duration)
	}
	h.observer.Observe(ctx, startedAt, "job", err, fields)
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var _ worker.Hook = (*ObserverHook)(nil)
