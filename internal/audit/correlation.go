package audit

import "github.com/google/uuid"

// NewCorrelationID mints an id to thread through every record produced by
// one agent-loop turn, so a later reader can reconstruct "everything that
// happened while handling this request" from the flat JSONL stream.
func NewCorrelationID() string {
	return uuid.NewString()
}
