// Package worker runs the asynq queue that delivers mirror pushes to the
// GitHub contents API off the request path.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/carspot/internal/store/githubfs"
)

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

// Implement asynq.Logger interface methods
func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Start starts the mirror worker in non-blocking mode and returns a stop
// function for shutdown coordination. Concurrency is pinned to 1 so pushes
// for the same file are delivered in enqueue order; a reordered push would
// regress the mirror to an older snapshot.
func Start(redisURL string, client *githubfs.Client, logger *slog.Logger) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     1,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMirrorPush, handleMirrorPush(logger, client))

	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	logger.Info("Mirror worker started", "redis", redisURL)
	return func() { srv.Shutdown() }, nil
}

// handleMirrorPush delivers one table snapshot to the GitHub contents API.
func handleMirrorPush(logger *slog.Logger, client *githubfs.Client) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload mirrorPushPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		logger.Info(
			"Processing mirror:push task",
			"path", payload.Path,
			"bytes", len(payload.Content),
		)

		if err := client.PutFile(ctx, payload.Path, payload.Content, "Update "+payload.Path); err != nil {
			// Push failures are retryable: the API may be rate limiting or
			// briefly unreachable.
			logger.Error(
				"Mirror push failed",
				"path", payload.Path,
				"error", err.Error(),
			)
			return fmt.Errorf("mirror push failed: %w", err)
		}

		logger.Info("Mirror push completed", "path", payload.Path)
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Durability is best-effort on the mirror backend: once retries are
		// exhausted the snapshot is lost unless a later save supersedes it.
		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
			)
		}
	}
}
