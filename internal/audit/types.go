// Package audit は認証・認可に関わる出来事を記録します。
//
// 記録はベストエフォートです。失敗はログに残すだけで、リクエストを失敗させません。
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/postboard/internal/models"
)

// イベント種別
const (
	EventSignup            = "signup"
	EventLoginSucceeded    = "login_succeeded"
	EventLoginFailed       = "login_failed"
	EventMutationForbidden = "mutation_forbidden"
	EventPostDeleted       = "post_deleted"
)

// Recorder はイベントの記録先です。
type Recorder interface {
	Record(ctx context.Context, event models.AuditEvent)
}

// Writer はイベントを永続化します。
type Writer interface {
	SaveAuditEvent(ctx context.Context, event models.AuditEvent) error
}

type ctxKeyClientIP struct{}

// WithClientIP はイベントに添えるクライアントIPをコンテキストに載せます。
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP{}, ip)
}

func clientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKeyClientIP{}).(string)
	return ip
}

// Emit は ID・時刻・クライアントIPを補ってイベントを記録します。r が nil なら何もしません。
func Emit(ctx context.Context, r Recorder, event models.AuditEvent) {
	if r == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.ClientIP == "" {
		event.ClientIP = clientIPFrom(ctx)
	}
	// クライアント切断でも記録は続ける
	r.Record(context.WithoutCancel(ctx), event)
}

// Direct はイベントをその場で Writer に書き込みます。キューを使わない構成で利用します。
type Direct struct {
	writer Writer
	logger *log.Logger
}

// NewDirect は Direct を作成します。
func NewDirect(writer Writer, logger *log.Logger) *Direct {
	return &Direct{writer: writer, logger: logger}
}

func (d *Direct) Record(ctx context.Context, event models.AuditEvent) {
	if err := d.writer.SaveAuditEvent(ctx, event); err != nil {
		logf(d.logger, "audit: failed to save event type=%s: %v", event.Type, err)
	}
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}
