package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/model"
	"photoflow/internal/queue"
)

// jobQueue defines the interface for the in-process priority queue.
type jobQueue interface {
	Enqueue(job model.Job, cb queue.Callbacks) error
}

// service provides the callbacks that keep durable job records current.
type service interface {
	JobCallbacks() queue.Callbacks
}

// RequestedHandler feeds process-requested Kafka messages into the
// processing queue.
type RequestedHandler struct {
	queue   jobQueue
	service service
}

// NewRequestedHandler creates a new handler over the given queue and service.
func NewRequestedHandler(q jobQueue, s service) *RequestedHandler {
	return &RequestedHandler{queue: q, service: s}
}

// Handle unmarshals a process-requested message and enqueues the job.
func (h *RequestedHandler) Handle(_ context.Context, msg kafka.Message) error {
	var j model.Job
	if err := json.Unmarshal(msg.Value, &j); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	if err := h.queue.Enqueue(j, h.service.JobCallbacks()); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	zlog.Logger.Info().
		Str("job_id", j.ID.String()).
		Str("priority", string(j.Priority)).
		Msg("job queued")

	return nil
}
