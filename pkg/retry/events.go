package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogEventHandler writes retry events to a zerolog logger
type LogEventHandler struct {
	logger zerolog.Logger
}

// NewLogEventHandler creates an event handler that logs through logger
func NewLogEventHandler(logger zerolog.Logger) *LogEventHandler {
	return &LogEventHandler{logger: logger}
}

// OnRetryAttempt handles retry attempt events
func (h *LogEventHandler) OnRetryAttempt(ctx context.Context, attempt int, err error) {
	h.logger.Debug().
		Int("attempt", attempt).
		AnErr("previous_error", err).
		Msg("Retry attempt starting")
}

// OnRetrySuccess handles retry success events
func (h *LogEventHandler) OnRetrySuccess(ctx context.Context, attempt int, duration time.Duration) {
	h.logger.Info().
		Int("attempt", attempt).
		Dur("duration", duration).
		Msg("Retry succeeded")
}

// OnRetryFailure handles terminal failure events
func (h *LogEventHandler) OnRetryFailure(ctx context.Context, attempt int, err error) {
	h.logger.Warn().
		Int("attempt", attempt).
		Err(err).
		Msg("Attempt failed without retry")
}

// OnMaxAttemptsReached handles max attempts reached events
func (h *LogEventHandler) OnMaxAttemptsReached(ctx context.Context, attempt int, err error) {
	h.logger.Error().
		Int("attempts", attempt).
		Err(err).
		Msg("Max retry attempts reached")
}

// multiHandler fans events out to several handlers in order
type multiHandler []EventHandler

// EventHandlers combines handlers into one. Nil entries are skipped.
func EventHandlers(handlers ...EventHandler) EventHandler {
	var m multiHandler
	for _, h := range handlers {
		if h != nil {
			m = append(m, h)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multiHandler) OnRetryAttempt(ctx context.Context, attempt int, err error) {
	for _, h := range m {
		h.OnRetryAttempt(ctx, attempt, err)
	}
}

func (m multiHandler) OnRetrySuccess(ctx context.Context, attempt int, duration time.Duration) {
	for _, h := range m {
		h.OnRetrySuccess(ctx, attempt, duration)
	}
}

func (m multiHandler) OnRetryFailure(ctx context.Context, attempt int, err error) {
	for _, h := range m {
		h.OnRetryFailure(ctx, attempt, err)
	}
}

func (m multiHandler) OnMaxAttemptsReached(ctx context.Context, attempt int, err error) {
	for _, h := range m {
		h.OnMaxAttemptsReached(ctx, attempt, err)
	}
}
