package client

import "time"

// Client は派遣先クライアントのエンティティです。
type Client struct {
	ID             string
	Name           string
	ContactPerson  string
	Email          string
	Phone          string
	City           string
	Postcode       string
	FinanceContact string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
