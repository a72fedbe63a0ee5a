// Package notify publishes deployment events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/bdeep/internal/deploy"
	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
)

// DefaultSubjectPrefix is the subject root; events go to <prefix>.<job>.<mode>.
const DefaultSubjectPrefix = "bdeep.deploy"

// flushTimeout bounds how long RecordPair waits for the server to take the event.
const flushTimeout = 5 * time.Second

// Event is the JSON payload published for every job/mode pair.
type Event struct {
	RunID      string    `json:"run_id"`
	Job        string    `json:"job"`
	Mode       string    `json:"mode"`
	Action     string    `json:"action"`
	Built      bool      `json:"built"`
	Tag        string    `json:"tag"`
	Entry      string    `json:"entry,omitempty"`
	Command    string    `json:"command,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// NewEvent converts a driver result into an event.
func NewEvent(r deploy.PairResult) Event {
	ev := Event{
		RunID:      r.RunID,
		Job:        r.Job,
		Mode:       r.Mode,
		Action:     string(r.Action),
		Built:      r.Built,
		Tag:        r.Tag,
		Entry:      r.Entry,
		Command:    r.Command,
		DryRun:     r.DryRun,
		Success:    r.Err == nil,
		StartedAt:  r.Started,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	return ev
}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Publisher sends pair events to NATS. It satisfies deploy.Sink.
type Publisher struct {
	conn   conn
	prefix string
}

var _ deploy.Sink = (*Publisher)(nil)

// NewPublisher connects to the NATS server at url.
func NewPublisher(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("bdeep"), nats.MaxReconnects(5))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS publisher connected", slog.String("url", nc.ConnectedUrlRedacted()), slog.String("prefix", subjectPrefix(prefix)))
	return newPublisher(nc, prefix), nil
}

func newPublisher(c conn, prefix string) *Publisher {
	return &Publisher{conn: c, prefix: subjectPrefix(prefix)}
}

func subjectPrefix(prefix string) string {
	if prefix == "" {
		return DefaultSubjectPrefix
	}
	return prefix
}

// Subject returns the subject a pair's events are published on.
func (p *Publisher) Subject(job, mode string) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, job, mode)
}

// RecordPair publishes the pair result and waits for the server to accept it.
func (p *Publisher) RecordPair(ctx context.Context, result deploy.PairResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewEvent(result))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := p.Subject(result.Job, result.Mode)
	if err := p.conn.Publish(subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish deployment event").
			WithContext("subject", subject).
			Build()
	}
	if err := p.conn.FlushTimeout(flushTimeout); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to flush deployment event").
			WithContext("subject", subject).
			Build()
	}
	slog.Debug("Published deployment event", slog.String("subject", subject), logfields.RunID(result.RunID))
	return nil
}

// Close closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
