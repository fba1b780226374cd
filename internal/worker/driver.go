// Package worker is the out-of-scope broker consumer loop's in-process
// counterpart: it depends only on the broker.Consumer/broker.Publisher
// interfaces and the compiler pipeline, implementing the driver described
// in SPEC_FULL.md section 4.7.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/co-codin/query-compiler/internal/broker"
	"github.com/co-codin/query-compiler/internal/compiler/cerr"
	"github.com/co-codin/query-compiler/internal/pipeline"
	"github.com/co-codin/query-compiler/internal/platform/metrics"
)

// Compiler is the pipeline entry point the driver calls for each delivery.
type Compiler interface {
	Compile(ctx context.Context, identityID string, query []byte) (string, error)
}

// Driver wires a broker.Consumer and broker.Publisher to a Compiler.
type Driver struct {
	Consumer broker.Consumer
	Producer broker.Publisher
	Compiler Compiler
	Metrics  *metrics.Counters
	Logger   *slog.Logger
}

// Run consumes deliveries until ctx is canceled or the consumer's channel
// closes.
func (d *Driver) Run(ctx context.Context) error {
	deliveries, err := d.Consumer.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("worker: failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			d.handle(ctx, delivery)
		}
	}
}

// handle implements one iteration of the pipeline driver loop in
// SPEC_FULL.md section 4.7.
func (d *Driver) handle(ctx context.Context, delivery broker.Delivery) {
	envelope, err := pipeline.ParseEnvelope(delivery.Body)
	if err != nil {
		d.Logger.Error("envelope_parse_failed", slog.Any("error", err))
		if rejectErr := d.Consumer.Reject(ctx, delivery); rejectErr != nil {
			d.Logger.Error("reject_failed", slog.Any("error", rejectErr))
		}
		return
	}

	logger := d.Logger.With(slog.String("guid", envelope.GUID), slog.String("run_guid", envelope.RunGUID))

	done := d.Metrics.BeginCompile()
	sql, err := d.Compiler.Compile(ctx, envelope.IdentityID, envelope.Query)
	done(err == nil)

	if err != nil {
		d.publishError(ctx, envelope, err, logger)
	} else {
		d.publishSuccess(ctx, envelope, sql, logger)
	}

	if ackErr := d.Consumer.Ack(ctx, delivery); ackErr != nil {
		logger.Error("ack_failed", slog.Any("error", ackErr))
	}
}

func (d *Driver) publishSuccess(ctx context.Context, envelope pipeline.RequestEnvelope, sql string, logger *slog.Logger) {
	result := pipeline.SuccessResult{
		GUID:       envelope.GUID,
		RunGUID:    envelope.RunGUID,
		ConnString: envelope.ConnString,
		Status:     "compiled",
		Query:      sql,
	}
	d.publish(ctx, result, logger)
}

func (d *Driver) publishError(ctx context.Context, envelope pipeline.RequestEnvelope, err error, logger *slog.Logger) {
	message := "Failed to compile"
	if ce := cerr.As(err); ce != nil && ce.Kind == cerr.KindAccessDenied {
		message = fmt.Sprintf("Access denied for %v", ce.Fields)
	}

	logger.Error("compilation_failed", slog.Any("error", err))

	result := pipeline.ErrorResult{
		GUID:    envelope.GUID,
		RunGUID: envelope.RunGUID,
		Status:  "error",
		Error:   message,
	}
	d.publish(ctx, result, logger)
}

func (d *Driver) publish(ctx context.Context, result any, logger *slog.Logger) {
	payload, err := json.Marshal(result)
	if err != nil {
		logger.Error("publish_encode_failed", slog.Any("error", err))
		return
	}
	if err := d.Producer.Publish(ctx, payload); err != nil {
		logger.Error("publish_failed", slog.Any("error", err))
	}
}
