package audit

import (
	"context"

	"go.uber.org/zap"

	coreaudit "github.com/ogurasousui/staffing-clean-arch/internal/core/audit"
)

// ZapRecorder は監査イベントを構造化ログとして出力する Recorder です。
type ZapRecorder struct {
	logger *zap.Logger
}

// NewZapRecorder は ZapRecorder を生成します。
func NewZapRecorder(logger *zap.Logger) *ZapRecorder {
	return &ZapRecorder{logger: logger}
}

// Record はイベントを audit ログとして出力します。
func (r *ZapRecorder) Record(_ context.Context, event coreaudit.Event) {
	if r == nil || r.logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("actor", event.Actor),
		zap.String("action", event.Action),
		zap.String("entity_type", event.EntityType),
		zap.String("entity_id", event.EntityID),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.Before != nil {
		fields = append(fields, zap.Any("before", event.Before))
	}
	if event.After != nil {
		fields = append(fields, zap.Any("after", event.After))
	}

	r.logger.Info("audit", fields...)
}
