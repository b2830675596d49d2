package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/yourusername/postboard/internal/models"
)

const (
	taskTypeRecord = "audit:record"
	queueName      = "audit"
)

// Manager はイベントを Asynq キュー経由で非同期に永続化します。
type Manager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	writer Writer
	logger *log.Logger
}

// NewManager は Manager を初期化します。
func NewManager(redisURL string, writer Writer, logger *log.Logger) (*Manager, error) {
	if writer == nil {
		return nil, errors.New("writer is nil")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queueName: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	manager := &Manager{
		client: client,
		server: server,
		mux:    mux,
		writer: writer,
		logger: logger,
	}
	mux.HandleFunc(taskTypeRecord, manager.handleRecordTask)
	return manager, nil
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			logf(m.logger, "asynq server stopped with error: %v", err)
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown() {
	m.server.Shutdown()
	_ = m.client.Close()
}

// Record はイベントをキューに投入します。投入に失敗してもエラーは返しません。
func (m *Manager) Record(ctx context.Context, event models.AuditEvent) {
	if _, err := m.Enqueue(ctx, event); err != nil {
		logf(m.logger, "audit: failed to enqueue event type=%s: %v", event.Type, err)
	}
}

// Enqueue はイベントをキューに投入し、タスクIDを返します。
func (m *Manager) Enqueue(ctx context.Context, event models.AuditEvent) (string, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	task := asynq.NewTask(taskTypeRecord, body, asynq.Queue(queueName))
	info, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (m *Manager) handleRecordTask(ctx context.Context, task *asynq.Task) error {
	var event models.AuditEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		// 壊れたペイロードは再試行しても直らない
		return fmt.Errorf("decode audit event: %v: %w", err, asynq.SkipRetry)
	}
	if event.Type == "" {
		return fmt.Errorf("missing event type: %w", asynq.SkipRetry)
	}
	return m.writer.SaveAuditEvent(ctx, event)
}
