package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event は業務データの変更 1 件を表します。Before と After には変更前後の
// エンティティのスナップショットをそのまま渡します。
type Event struct {
	ID         string
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
	OccurredAt time.Time
}

// NewEvent は ID を採番して Event を生成します。
func NewEvent(actor, action, entityType, entityID string, before, after any, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		OccurredAt: occurredAt,
	}
}

// Recorder は監査イベントの記録先の抽象です。記録はモデルのライフサイクル
// フックではなく、書き込みユースケースからの明示的な呼び出しで行います。
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Noop は何も記録しない Recorder です。
type Noop struct{}

// Record は何もしません。
func (Noop) Record(context.Context, Event) {}
