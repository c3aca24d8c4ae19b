// Package assistant defines the interface to the reasoning service that
// answers financial questions, plus the assembler that builds the bounded
// financial context each question is answered against.
package assistant

import (
	"context"
)

// Request is a single question together with the financial context it
// should be answered against.
type Request struct {
	UserID   int64
	Snapshot *Snapshot
	Question string
}

// Responder produces an assistant reply for a request.
// Implementations must not retry internally; transient failures surface
// to the caller so the room can broadcast an error event.
type Responder interface {
	Respond(ctx context.Context, req *Request) (string, error)
}
