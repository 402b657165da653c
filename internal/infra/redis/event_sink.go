package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"persona-quiz-service/internal/domain"
)

// StreamSink publishes analytics events to a Redis stream for downstream
// consumers (pixels, warehouses). Delivery is best-effort: failures are
// logged and never reach the session state machine.
type StreamSink struct {
	client  *redis.Client
	stream  string
	timeout time.Duration
}

func NewStreamSink(client *redis.Client, stream string) *StreamSink {
	if stream == "" {
		stream = "quiz:events"
	}
	return &StreamSink{client: client, stream: stream, timeout: 2 * time.Second}
}

func (s *StreamSink) Emit(ctx context.Context, event domain.Event) {
	ctx, cancel := context.WithTimeout(withoutCancel(ctx), s.timeout)
	defer cancel()

	values := map[string]interface{}{
		"name":      event.Name,
		"quizTitle": event.QuizTitle,
	}
	if len(event.Data) > 0 {
		if raw, err := json.Marshal(event.Data); err == nil {
			values["data"] = string(raw)
		}
	}

	if err := s.client.XAdd(ctx, &redis.XAddArgs{Stream: s.stream, Values: values}).Err(); err != nil {
		log.Printf("analytics emit %q failed: %v", event.Name, err)
	}
}

// withoutCancel detaches the emit from the caller's cancellation so a closing
// request cannot truncate a near-complete write, while the sink's own timeout
// still bounds it.
func withoutCancel(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
