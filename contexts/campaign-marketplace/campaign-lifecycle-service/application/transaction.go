package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

const tracerName = "brandreach/campaign-lifecycle-service"

const defaultMaxAttempts = 3

// StartSpan opens a span on the service tracer. With no provider installed it
// is a no-op span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// TxRunner executes a unit of work and retries it a bounded number of times
// when the store reports a write conflict. Every attempt runs fn from scratch
// in a fresh transaction.
type TxRunner struct {
	UnitOfWork     ports.UnitOfWork
	MaxAttempts    int
	InitialBackoff time.Duration
	Logger         *slog.Logger
}

func (r TxRunner) Run(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, store ports.Store) error,
) error {
	logger := ResolveLogger(r.Logger)
	ctx, span := StartSpan(ctx, "tx."+operation, attribute.String("tx.operation", operation))
	defer span.End()

	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	if r.InitialBackoff > 0 {
		policy.InitialInterval = r.InitialBackoff
	}
	policy.MaxInterval = 250 * time.Millisecond

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := r.UnitOfWork.WithinTransaction(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !errors.Is(err, domainerrors.ErrTransactionConflict) {
			return struct{}{}, backoff.Permanent(err)
		}
		logger.Warn("transaction conflict, retrying",
			"event", "transaction_conflict",
			"module", "campaign-marketplace/campaign-lifecycle-service",
			"layer", "application",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", maxAttempts,
		)
		return struct{}{}, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(maxAttempts)))

	span.SetAttributes(attribute.Int("tx.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domainerrors.ErrTransactionConflict) {
			logger.Error("transaction retries exhausted",
				"event", "transaction_conflict_exhausted",
				"module", "campaign-marketplace/campaign-lifecycle-service",
				"layer", "application",
				"operation", operation,
				"attempts", attempt,
			)
		}
		return err
	}
	return nil
}
