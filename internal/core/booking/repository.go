package booking

import (
	"context"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
)

// Repository は予約とアサインの永続化の抽象です。FindByID と List は
// アサイン一覧を含めて返します。
type Repository interface {
	Create(ctx context.Context, b *BookingRequest) (*BookingRequest, error)
	Update(ctx context.Context, b *BookingRequest) (*BookingRequest, error)
	FindByID(ctx context.Context, id string) (*BookingRequest, error)
	List(ctx context.Context, filter ListBookingsFilter) ([]*BookingRequest, string, error)

	CreateAssignment(ctx context.Context, a *Assignment) (*Assignment, error)
	UpdateAssignment(ctx context.Context, a *Assignment) (*Assignment, error)
	FindAssignment(ctx context.Context, id string) (*Assignment, error)
}

// CandidateDirectory は候補者スナップショットを参照する抽象です。
type CandidateDirectory interface {
	FindByID(ctx context.Context, id string) (*candidate.Candidate, error)
}

// RateCardSource はクライアントと職種のレート表集合を参照する抽象です。
type RateCardSource interface {
	ListForClientRole(ctx context.Context, clientID, jobRoleID string) ([]*ratecard.RateCard, error)
}

// ListBookingsFilter は一覧取得用フィルタです。
type ListBookingsFilter struct {
	ClientID  string
	JobRoleID string
	Status    *Status
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
