package client

import "context"

// Repository はクライアント永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, c *Client) (*Client, error)
	Update(ctx context.Context, c *Client) (*Client, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Client, error)
	FindByName(ctx context.Context, name string) (*Client, error)
	List(ctx context.Context, filter ListClientsFilter) ([]*Client, string, error)
}

// ListClientsFilter は一覧取得用フィルタです。
type ListClientsFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
