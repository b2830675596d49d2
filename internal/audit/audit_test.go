package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/postboard/internal/models"
)

type memWriter struct {
	mu     sync.Mutex
	events []models.AuditEvent
	err    error
}

func (w *memWriter) SaveAuditEvent(ctx context.Context, event models.AuditEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, event)
	return nil
}

func TestEmitFillsDefaults(t *testing.T) {
	w := &memWriter{}
	ctx := WithClientIP(context.Background(), "10.0.0.1")

	Emit(ctx, NewDirect(w, nil), models.AuditEvent{Type: EventLoginFailed, Nickname: "abc"})

	require.Len(t, w.events, 1)
	ev := w.events[0]
	assert.Equal(t, EventLoginFailed, ev.Type)
	assert.Equal(t, "10.0.0.1", ev.ClientIP)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestEmitNilRecorder(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, models.AuditEvent{Type: EventSignup})
	})
}

func TestEmitIgnoresCanceledContext(t *testing.T) {
	w := &memWriter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	Emit(ctx, recorderFunc(func(ctx context.Context, ev models.AuditEvent) {
		assert.NoError(t, ctx.Err())
		_ = w.SaveAuditEvent(ctx, ev)
	}), models.AuditEvent{Type: EventSignup})
	assert.Len(t, w.events, 1)
}

func TestDirectSwallowsWriteErrors(t *testing.T) {
	w := &memWriter{err: errors.New("disk full")}
	assert.NotPanics(t, func() {
		NewDirect(w, nil).Record(context.Background(), models.AuditEvent{Type: EventSignup})
	})
}

func TestHandleRecordTask(t *testing.T) {
	w := &memWriter{}
	m := &Manager{writer: w}

	body, err := json.Marshal(models.AuditEvent{ID: "e1", Type: EventPostDeleted, UserID: "u1", PostID: "p1"})
	require.NoError(t, err)

	require.NoError(t, m.handleRecordTask(context.Background(), asynq.NewTask(taskTypeRecord, body)))
	require.Len(t, w.events, 1)
	assert.Equal(t, "p1", w.events[0].PostID)
}

func TestHandleRecordTaskRejectsBadPayload(t *testing.T) {
	m := &Manager{writer: &memWriter{}}

	err := m.handleRecordTask(context.Background(), asynq.NewTask(taskTypeRecord, []byte("not-json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = m.handleRecordTask(context.Background(), asynq.NewTask(taskTypeRecord, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNewManagerRequiresWriter(t *testing.T) {
	_, err := NewManager("redis://127.0.0.1:6379/0", nil, nil)
	assert.Error(t, err)

	_, err = NewManager("://bad", &memWriter{}, nil)
	assert.Error(t, err)
}

type recorderFunc func(ctx context.Context, ev models.AuditEvent)

func (f recorderFunc) Record(ctx context.Context, ev models.AuditEvent) { f(ctx, ev) }
