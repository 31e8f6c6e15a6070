package client

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/audit"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service はクライアントに関するユースケースをまとめます。
type Service struct {
	repo    Repository
	clock   Clock
	tx      TransactionManager
	auditor audit.Recorder
}

// UseCase はクライアントユースケースの公開インターフェースです。
type UseCase interface {
	CreateClient(ctx context.Context, in CreateClientInput) (*Client, error)
	UpdateClient(ctx context.Context, in UpdateClientInput) (*Client, error)
	DeleteClient(ctx context.Context, in DeleteClientInput) error
	GetClient(ctx context.Context, in GetClientInput) (*Client, error)
	ListClients(ctx context.Context, in ListClientsInput) (*ListClientsResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, auditor audit.Recorder) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if auditor == nil {
		auditor = audit.Noop{}
	}
	return &Service{repo: repo, clock: clock, tx: tx, auditor: auditor}
}

// CreateClientInput はクライアント作成時の入力です。
type CreateClientInput struct {
	Name           string
	ContactPerson  string
	Email          string
	Phone          string
	City           string
	Postcode       string
	FinanceContact string
	Active         *bool
	Actor          string
}

// UpdateClientInput はクライアント更新時の入力です。
type UpdateClientInput struct {
	ID             string
	Name           *string
	ContactPerson  *string
	Email          *string
	Phone          *string
	City           *string
	Postcode       *string
	FinanceContact *string
	Active         *bool
	Actor          string
}

// DeleteClientInput はクライアント削除時の入力です。
type DeleteClientInput struct {
	ID    string
	Actor string
}

// GetClientInput はクライアント取得時の入力です。
type GetClientInput struct {
	ID string
}

// ListClientsInput は一覧取得時の入力です。
type ListClientsInput struct {
	ActiveOnly bool
	PageSize   int
	PageToken  string
}

// ListClientsResult は一覧取得結果を表します。
type ListClientsResult struct {
	Clients       []*Client
	NextPageToken string
}

// CreateClient は新しいクライアントを作成します。
func (s *Service) CreateClient(ctx context.Context, in CreateClientInput) (*Client, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	var created *Client
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureNameNotExists(txCtx, name); err != nil {
			return err
		}

		now := s.clock.Now()
		c := &Client{
			Name:           name,
			ContactPerson:  strings.TrimSpace(in.ContactPerson),
			Email:          email,
			Phone:          strings.TrimSpace(in.Phone),
			City:           strings.TrimSpace(in.City),
			Postcode:       strings.TrimSpace(in.Postcode),
			FinanceContact: strings.TrimSpace(in.FinanceContact),
			Active:         active,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		result, err := s.repo.Create(txCtx, c)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "client.created", "client", created.ID, nil, created, s.clock.Now()))
	return created, nil
}

// UpdateClient はクライアント情報を更新します。
func (s *Service) UpdateClient(ctx context.Context, in UpdateClientInput) (*Client, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before  *Client
		updated *Client
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		snapshot := *existing
		before = &snapshot

		if in.Name != nil {
			name, err := normalizeName(*in.Name)
			if err != nil {
				return err
			}
			if name != existing.Name {
				if err := s.ensureNameNotExists(txCtx, name); err != nil {
					return err
				}
				existing.Name = name
			}
		}

		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			existing.Email = email
		}

		if in.ContactPerson != nil {
			existing.ContactPerson = strings.TrimSpace(*in.ContactPerson)
		}

		if in.Phone != nil {
			existing.Phone = strings.TrimSpace(*in.Phone)
		}

		if in.City != nil {
			existing.City = strings.TrimSpace(*in.City)
		}

		if in.Postcode != nil {
			existing.Postcode = strings.TrimSpace(*in.Postcode)
		}

		if in.FinanceContact != nil {
			existing.FinanceContact = strings.TrimSpace(*in.FinanceContact)
		}

		if in.Active != nil {
			existing.Active = *in.Active
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "client.updated", "client", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

// DeleteClient はクライアントを削除します。
func (s *Service) DeleteClient(ctx context.Context, in DeleteClientInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	var deleted *Client
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		deleted = existing
		return s.repo.Delete(txCtx, in.ID)
	}); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "client.deleted", "client", deleted.ID, deleted, nil, s.clock.Now()))
	return nil
}

// GetClient はクライアントを取得します。
func (s *Service) GetClient(ctx context.Context, in GetClientInput) (*Client, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Client
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListClients はクライアントの一覧を取得します。
func (s *Service) ListClients(ctx context.Context, in ListClientsInput) (*ListClientsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		clients   []*Client
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListClientsFilter{
			ActiveOnly: in.ActiveOnly,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		clients = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListClientsResult{Clients: clients, NextPageToken: nextToken}, nil
}

func (s *Service) ensureNameNotExists(ctx context.Context, name string) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, ErrClientNotFound) {
		return err
	}
	if existing != nil {
		return ErrNameAlreadyExists
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(trimmed), nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
