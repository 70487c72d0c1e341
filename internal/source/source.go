package source

import (
	"context"
	"errors"
	"time"

	"github.com/galois26/ais-ingester/internal/model"
)

// Source is one feed subscription run to completion.
type Source interface {
	Name() string
	Run(ctx context.Context) Result
}

var (
	// ErrConnection covers dial and subscribe failures. Never retried here.
	ErrConnection = errors.New("connection error")
	// ErrAuth means the feed rejected the API key.
	ErrAuth = errors.New("api key rejected")
)

// Status is the terminal state of a session.
type Status string

const (
	StatusDone            Status = "done"
	StatusEmpty           Status = "empty"
	StatusAuthError       Status = "auth_error"
	StatusConnectionError Status = "connection_error"
	StatusSchemaError     Status = "schema_error"
	StatusSinkError       Status = "sink_error"
	StatusUnknown         Status = "unknown"
)

// Reason records what ended the receive loop.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonTimeout     Reason = "timeout"
	ReasonDeadline    Reason = "deadline"
	ReasonDisconnect  Reason = "disconnect"
	ReasonInterrupted Reason = "interrupted"
)

// Result summarises one session.
type Result struct {
	ID          string
	Name        string
	MessageType model.MessageType
	Status      Status
	Reason      Reason
	Received    int
	Dropped     int
	Rows        int
	Elapsed     time.Duration
	Err         error
}

// Abnormal is true unless the session flushed because its time budget ran out.
func (r Result) Abnormal() bool {
	if r.Status != StatusDone {
		return true
	}
	return r.Reason != ReasonTimeout && r.Reason != ReasonDeadline
}

// Flushed reports whether the batch was handed to the sink.
func (r Result) Flushed() bool { return r.Status == StatusDone }
