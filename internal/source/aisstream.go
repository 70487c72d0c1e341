package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/galois26/ais-ingester/internal/format"
	"github.com/galois26/ais-ingester/internal/metrics"
	"github.com/galois26/ais-ingester/internal/model"
	"github.com/galois26/ais-ingester/internal/schema"
	"github.com/galois26/ais-ingester/internal/sink"
	"github.com/galois26/ais-ingester/internal/util"
)

// DefaultURL is the aisstream.io streaming endpoint.
const DefaultURL = "wss://stream.aisstream.io/v0/stream"

// Drop reasons, used as metric labels.
const (
	dropUndecodable = "undecodable"
	dropFeedError   = "feed_error"
	dropNoPayload   = "missing_payload"
	dropInvalid     = "invalid"
)

// Options carries the collaborators shared by every session.
type Options struct {
	URL    string
	Dialer *websocket.Dialer
	Sink   sink.Sink

	// EnforceDeadline makes an idle connection end at start+timeout. Without it
	// the budget is only checked when a frame arrives.
	EnforceDeadline bool
	// ReadLimit caps a single frame; 0 leaves gorilla's default (unlimited).
	ReadLimit int64

	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Session is one subscription to the AIS feed. It buffers formatted rows and
// hands them to the sink once, when its time budget runs out or the feed hangs up.
type Session struct {
	id     string
	cfg    model.SessionConfig
	schema schema.Schema
	opts   Options
	rows   *format.Formatter
	log    *slog.Logger
}

func NewSession(cfg model.SessionConfig, opts Options) (*Session, error) {
	sc, err := schema.Lookup(cfg.MessageType)
	if err != nil {
		return nil, err
	}
	if opts.Sink == nil {
		return nil, errors.New("session: no sink")
	}
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Dialer == nil {
		opts.Dialer = util.NewDialer(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = string(cfg.MessageType)
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		cfg:    cfg,
		schema: sc,
		opts:   opts,
		rows:   &format.Formatter{Now: opts.Now},
		log: opts.Logger.With(
			slog.String("session_id", id),
			slog.String("session", cfg.Name),
			slog.String("message_type", string(cfg.MessageType)),
		),
	}, nil
}

func (s *Session) Name() string { return s.cfg.Name }

func (s *Session) ID() string { return s.id }

// Run connects, subscribes and receives until the session ends. It never
// panics and never returns without a terminal Status.
func (s *Session) Run(ctx context.Context) (res Result) {
	res = Result{ID: s.id, Name: s.cfg.Name, MessageType: s.cfg.MessageType}
	start := s.opts.Now()
	mt := string(s.cfg.MessageType)

	s.opts.Metrics.SessionStarted()
	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusUnknown
			res.Err = fmt.Errorf("panic: %v", p)
			s.log.Error("session panicked", "panic", p, "stack", string(debug.Stack()))
		}
		res.Elapsed = s.opts.Now().Sub(start)
		s.opts.Metrics.SessionEnded(mt, string(res.Status))
		s.report(res)
	}()

	s.log.Info("connecting", "url", s.opts.URL, "timeout", s.cfg.Timeout, "bbox", s.cfg.BoundingBox)
	conn, _, err := s.opts.Dialer.DialContext(ctx, s.opts.URL, nil)
	if err != nil {
		res.Status = StatusConnectionError
		res.Err = fmt.Errorf("%w: dial %s: %v", ErrConnection, s.opts.URL, err)
		return res
	}
	defer s.hangUp(conn)

	if err := conn.WriteJSON(s.cfg.Subscription()); err != nil {
		res.Status = StatusConnectionError
		res.Err = fmt.Errorf("%w: subscribe: %v", ErrConnection, err)
		return res
	}
	if s.opts.ReadLimit > 0 {
		conn.SetReadLimit(s.opts.ReadLimit)
	}
	if s.opts.EnforceDeadline {
		_ = conn.SetReadDeadline(start.Add(s.cfg.Timeout))
	}
	// Unblock the pending read on interrupt; the error is classified below.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	var (
		batch   model.Batch
		feedErr string
	)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.readFailed(ctx, err, batch, feedErr, &res)
			return res
		}
		if s.opts.Now().Sub(start) >= s.cfg.Timeout {
			s.flush(ctx, batch, ReasonTimeout, &res)
			return res
		}
		res.Received++
		s.opts.Metrics.Received(mt)

		env, err := decodeEnvelope(data)
		if err != nil {
			s.drop(&res, dropUndecodable, "err", err)
			continue
		}
		if env.Error != "" {
			feedErr = env.Error
			s.drop(&res, dropFeedError, "feed_error", env.Error)
			continue
		}
		rec, ok := env.Message[s.cfg.MessageType]
		if !ok {
			s.drop(&res, dropNoPayload, "got", string(env.MessageType))
			continue
		}
		if !rec.Valid() {
			s.drop(&res, dropInvalid)
			continue
		}
		row, err := s.rows.Format(rec, s.cfg.MessageType)
		if err != nil {
			res.Status = StatusSchemaError
			res.Err = err
			return res
		}
		batch = append(batch, row)
	}
}

// readFailed decides the terminal state once the receive loop can no longer read.
func (s *Session) readFailed(ctx context.Context, err error, batch model.Batch, feedErr string, res *Result) {
	switch {
	case ctx.Err() != nil && len(batch) > 0:
		s.flush(ctx, batch, ReasonInterrupted, res)
	case ctx.Err() != nil:
		res.Status = StatusEmpty
		res.Reason = ReasonInterrupted
	case isTimeout(err) && s.opts.EnforceDeadline:
		s.flush(ctx, batch, ReasonDeadline, res)
	case isPeerClose(err):
		switch {
		case res.Received == 1 && isAuthFailure(feedErr):
			res.Status = StatusAuthError
			res.Err = fmt.Errorf("%w: %s", ErrAuth, feedErr)
		case len(batch) > 0:
			s.flush(ctx, batch, ReasonDisconnect, res)
		default:
			res.Status = StatusEmpty
			res.Reason = ReasonDisconnect
			res.Err = err
		}
	default:
		res.Status = StatusUnknown
		res.Err = err
	}
}

func (s *Session) flush(ctx context.Context, batch model.Batch, reason Reason, res *Result) {
	res.Reason = reason
	began := time.Now()
	// an interrupted session still gets to write what it has
	if err := s.opts.Sink.Push(context.WithoutCancel(ctx), s.schema.Group, batch); err != nil {
		res.Status = StatusSinkError
		res.Err = fmt.Errorf("push %s -> %s: %w", s.cfg.Name, s.opts.Sink.Name(), err)
		return
	}
	s.opts.Metrics.Flushed(string(s.schema.Group), len(batch), time.Since(began))
	res.Status = StatusDone
	res.Rows = len(batch)
}

func (s *Session) drop(res *Result, reason string, args ...any) {
	res.Dropped++
	s.opts.Metrics.Dropped(string(s.cfg.MessageType), reason)
	s.log.Debug("frame dropped", append([]any{"reason", reason}, args...)...)
}

// hangUp says goodbye politely; the peer may already be gone.
func (s *Session) hangUp(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = conn.Close()
}

func (s *Session) report(res Result) {
	attrs := []any{
		"status", res.Status, "reason", res.Reason, "received", res.Received,
		"dropped", res.Dropped, "rows", res.Rows, "elapsed", res.Elapsed.Truncate(time.Millisecond),
	}
	if res.Err != nil {
		attrs = append(attrs, "err", res.Err)
	}
	switch res.Status {
	case StatusDone:
		if res.Abnormal() {
			s.log.Warn("session ended abnormally, partial batch written", attrs...)
			return
		}
		s.log.Info("session finished", attrs...)
	case StatusEmpty:
		s.log.Warn("connection closed before any rows were collected", attrs...)
	case StatusAuthError:
		s.log.Error("API key is not valid, check the key and try again", attrs...)
	case StatusSchemaError:
		s.log.Error("payload does not match its message type, session aborted", attrs...)
	default:
		s.log.Error("session failed", attrs...)
	}
}

func decodeEnvelope(data []byte) (model.Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var env model.Envelope
	if err := dec.Decode(&env); err != nil {
		return model.Envelope{}, err
	}
	return env, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isPeerClose reports whether the connection itself went away: a close frame,
// a raw hang-up (1006) or a transport failure such as a reset. Read-limit and
// protocol errors from the websocket layer are not transport losses.
func isPeerClose(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

// isAuthFailure matches the feed's rejection text, e.g. "Api Key Is Not Valid".
func isAuthFailure(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "api key")
}
