package repositories

import (
	"context"

	"github.com/hmtran/audiolesson/domain/entities"
)

// Transcriber abstracts the external speech-to-text provider. Implementations
// are long-running (submit + poll) and must only be invoked from background
// workers, never from a request path.
type Transcriber interface {
	// Transcribe submits the audio at audioURL and blocks until the provider
	// reaches a terminal status, returning the full text and word timestamps.
	Transcribe(ctx context.Context, audioURL string) (*entities.Transcript, error)
}

// Publisher abstracts the partitioned message broker. Messages with the same
// key are delivered in order; delivery is at-least-once, so consumers must
// be idempotent.
type Publisher interface {
	Publish(topic string, key string, value []byte) error
}
