package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskMirrorPush = "mirror:push"
)

// mirrorPushPayload carries one full table snapshot to push to the mirror.
// Content is the complete CSV file, not a delta: pushes are full-replace
// like every other save in the system.
type mirrorPushPayload struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
}

// Enqueuer schedules mirror pushes on the asynq queue. It satisfies
// githubfs.Pusher: PushFile returns as soon as the task is enqueued, and
// delivery (with retries) happens on the worker.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an Enqueuer connected to the given Redis instance.
func NewEnqueuer(redisURL string) (*Enqueuer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Enqueuer{client: asynq.NewClient(opt)}, nil
}

// PushFile enqueues a mirror push for one file. The task retries up to 5
// times and is retained for a day of inspection after completion.
func (e *Enqueuer) PushFile(path string, content []byte) error {
	payload, err := json.Marshal(mirrorPushPayload{Path: path, Content: content})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskMirrorPush,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = e.client.Enqueue(task)
	return err
}

// Close closes the underlying queue connection gracefully.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
