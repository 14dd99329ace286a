// Package trigger implements the build trigger: for every uploaded AI output
// file in a notification batch it triggers one Jenkins build.
//
// Records are processed one at a time. A failed trigger is logged and the
// batch carries on; Handle always finishes with the completion marker.
package trigger

import (
	"context"
	"errors"
	"fmt"

	"buildtrigger/internal/files"
	"buildtrigger/internal/jenkins"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StatusDone is the completion marker returned for every batch.
const StatusDone = "done"

type Result struct {
	Status string `json:"status"`
}

// Done returns the completion marker.
func Done() Result {
	return Result{Status: StatusDone}
}

// Triggerer starts one build for an uploaded object.
type Triggerer interface {
	Trigger(ctx context.Context, obj files.S3Object) (jenkins.Response, error)
	RedactedURL(obj files.S3Object) string
}

// Notifier is told about records whose build could not be triggered.
type Notifier interface {
	NotifyTriggerFailure(ctx context.Context, obj files.S3Object, outcome string, cause error) error
}

// MetricsPublisher receives the outcome counts of each batch.
type MetricsPublisher interface {
	PublishOutcomes(ctx context.Context, counts map[string]int) error
}

type Handler struct {
	triggerer Triggerer
	notifier  Notifier
	metrics   MetricsPublisher
	logger    zerolog.Logger
}

type Option func(*Handler)

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithNotifier publishes a notification for every failed trigger.
func WithNotifier(n Notifier) Option {
	return func(h *Handler) { h.notifier = n }
}

// WithMetrics publishes outcome counts once per batch.
func WithMetrics(m MetricsPublisher) Option {
	return func(h *Handler) { h.metrics = m }
}

func NewHandler(triggerer Triggerer, opts ...Option) *Handler {
	h := &Handler{
		triggerer: triggerer,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes the batch in order and returns the completion marker.
// Exactly one entry at info level or above is logged per record.
func (h *Handler) Handle(ctx context.Context, batch []files.S3Object) Result {
	logger := h.logger.With().Str("invocationId", invocationID(ctx)).Logger()
	summary := Summary{}

	for _, obj := range batch {
		outcome := h.processRecord(ctx, logger, obj)
		summary[outcome]++
	}

	logger.Debug().
		Int("records", len(batch)).
		Interface("outcomes", summary.Counts()).
		Msg("Finished processing upload events")

	if h.metrics != nil {
		if err := h.metrics.PublishOutcomes(ctx, summary.Counts()); err != nil {
			logger.Debug().Err(err).Msg("Failed to publish outcome metrics")
		}
	}

	return Done()
}

func (h *Handler) processRecord(ctx context.Context, logger zerolog.Logger, obj files.S3Object) (outcome Outcome) {
	recordLogger := logger.With().Str("bucket", obj.Bucket).Str("key", obj.Key).Logger()

	if !obj.IsAIOutput() {
		recordLogger.Info().Str("outcome", Skipped.String()).Msg("Skipping file: does not match pattern")
		return Skipped
	}

	resp, err := h.dispatch(ctx, recordLogger, obj)
	outcome = classify(err)

	switch outcome {
	case Triggered:
		evt := recordLogger.Info().
			Str("outcome", outcome.String()).
			Int("status", resp.StatusCode).
			Str("reason", resp.Reason)
		if resp.QueueLocation != "" {
			evt = evt.Str("queueItem", resp.QueueLocation)
		}
		evt.Msg("Triggered Jenkins build")
	case ProtocolFailure:
		var protocolErr *jenkins.ProtocolError
		errors.As(err, &protocolErr)
		recordLogger.Error().
			Str("outcome", outcome.String()).
			Int("status", protocolErr.StatusCode).
			Str("reason", protocolErr.Reason).
			Msg("HTTP error triggering Jenkins")
	case TransportFailure:
		var transportErr *jenkins.TransportError
		errors.As(err, &transportErr)
		recordLogger.Error().
			Str("outcome", outcome.String()).
			Str("reason", transportErr.Reason).
			Msg("Could not reach Jenkins")
	default:
		recordLogger.Error().
			Str("outcome", outcome.String()).
			Err(err).
			Msg("Unexpected error triggering Jenkins")
	}

	if outcome.Failed() && h.notifier != nil {
		if notifyErr := h.notifier.NotifyTriggerFailure(ctx, obj, outcome.String(), err); notifyErr != nil {
			recordLogger.Debug().Err(notifyErr).Msg("Failed to send trigger failure notification")
		}
	}

	return outcome
}

// dispatch calls the triggerer, turning a panic into an error so one bad
// record cannot take down the batch.
func (h *Handler) dispatch(ctx context.Context, logger zerolog.Logger, obj files.S3Object) (resp jenkins.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while triggering %s: %v", obj.URI(), r)
		}
	}()

	logger.Debug().Str("url", h.triggerer.RedactedURL(obj)).Msg("Attempting to trigger Jenkins")
	return h.triggerer.Trigger(ctx, obj)
}

// classify maps a trigger error to an outcome; the first match wins.
func classify(err error) Outcome {
	switch {
	case err == nil:
		return Triggered
	case jenkins.IsProtocolError(err):
		return ProtocolFailure
	case jenkins.IsTransportError(err):
		return TransportFailure
	default:
		return UnexpectedFailure
	}
}

func invocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
