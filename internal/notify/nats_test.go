package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bdeep/internal/deploy"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	pubErr   error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) FlushTimeout(time.Duration) error { return nil }
func (f *fakeConn) Close()                          { f.closed = true }

func TestPublisher_RecordPair(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.RecordPair(context.Background(), deploy.PairResult{
		RunID:    "run-1",
		Job:      "app",
		Mode:     "PROD",
		Action:   deploy.ActionUpdate,
		Built:    true,
		Tag:      "bdeep-app-main",
		Started:  started,
		Duration: 2 * time.Second,
		Err:      stderrors.New("boom"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"bdeep.deploy.app.PROD"}, fc.subjects)

	var ev Event
	require.NoError(t, json.Unmarshal(fc.payloads[0], &ev))
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "update", ev.Action)
	assert.True(t, ev.Built)
	assert.False(t, ev.Success)
	assert.Equal(t, "boom", ev.Error)
	assert.Equal(t, int64(2000), ev.DurationMS)
	assert.True(t, ev.StartedAt.Equal(started))

	p.Close()
	assert.True(t, fc.closed)
}

func TestPublisher_Errors(t *testing.T) {
	fc := &fakeConn{pubErr: stderrors.New("nats: connection closed")}
	p := newPublisher(fc, "ops.bdeep")
	assert.Equal(t, "ops.bdeep.app.TEST", p.Subject("app", "TEST"))

	require.Error(t, p.RecordPair(context.Background(), deploy.PairResult{Job: "app", Mode: "TEST"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.RecordPair(ctx, deploy.PairResult{Job: "app", Mode: "TEST"}), context.Canceled)
}
