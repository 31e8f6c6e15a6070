package ratecard

import "context"

// Repository はレート表永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, card *RateCard) (*RateCard, error)
	Update(ctx context.Context, card *RateCard) (*RateCard, error)
	FindByID(ctx context.Context, id string) (*RateCard, error)
	ListForClientRole(ctx context.Context, clientID, jobRoleID string) ([]*RateCard, error)
	List(ctx context.Context, filter ListRateCardsFilter) ([]*RateCard, string, error)
}

// ListRateCardsFilter は一覧取得用フィルタです。
type ListRateCardsFilter struct {
	ClientID  string
	JobRoleID string
	Limit     int
	Offset    int
}
