package jobrole

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
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

// Service は職種に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は職種ユースケースの公開インターフェースです。
type UseCase interface {
	CreateJobRole(ctx context.Context, in CreateJobRoleInput) (*JobRole, error)
	UpdateJobRole(ctx context.Context, in UpdateJobRoleInput) (*JobRole, error)
	DeleteJobRole(ctx context.Context, in DeleteJobRoleInput) error
	GetJobRole(ctx context.Context, in GetJobRoleInput) (*JobRole, error)
	ListJobRoles(ctx context.Context, in ListJobRolesInput) (*ListJobRolesResult, error)
	AddComplianceDocument(ctx context.Context, in AddComplianceDocumentInput) (*ComplianceDocument, error)
	RemoveComplianceDocument(ctx context.Context, in RemoveComplianceDocumentInput) error
	ListComplianceDocuments(ctx context.Context, in ListComplianceDocumentsInput) ([]*ComplianceDocument, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateJobRoleInput は職種作成時の入力です。
type CreateJobRoleInput struct {
	Title       string
	Description string
	Active      *bool
}

// UpdateJobRoleInput は職種更新時の入力です。
type UpdateJobRoleInput struct {
	ID          string
	Title       *string
	Description *string
	Active      *bool
}

// DeleteJobRoleInput は職種削除時の入力です。
type DeleteJobRoleInput struct {
	ID string
}

// GetJobRoleInput は職種取得時の入力です。
type GetJobRoleInput struct {
	ID string
}

// ListJobRolesInput は一覧取得時の入力です。
type ListJobRolesInput struct {
	ActiveOnly bool
	PageSize   int
	PageToken  string
}

// ListJobRolesResult は一覧取得結果を表します。
type ListJobRolesResult struct {
	JobRoles      []*JobRole
	NextPageToken string
}

// AddComplianceDocumentInput は書類定義追加時の入力です。
type AddComplianceDocumentInput struct {
	JobRoleID      string
	Name           string
	Required       *bool
	RequiresExpiry bool
}

// RemoveComplianceDocumentInput は書類定義削除時の入力です。
type RemoveComplianceDocumentInput struct {
	ID string
}

// ListComplianceDocumentsInput は書類定義一覧取得時の入力です。
type ListComplianceDocumentsInput struct {
	JobRoleID string
}

// CreateJobRole は新しい職種を作成します。
func (s *Service) CreateJobRole(ctx context.Context, in CreateJobRoleInput) (*JobRole, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	var created *JobRole
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureTitleNotExists(txCtx, title); err != nil {
			return err
		}

		now := s.clock.Now()
		role := &JobRole{
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			Active:      active,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		result, err := s.repo.Create(txCtx, role)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateJobRole は職種を更新します。
func (s *Service) UpdateJobRole(ctx context.Context, in UpdateJobRoleInput) (*JobRole, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *JobRole
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.Title != nil {
			title, err := normalizeTitle(*in.Title)
			if err != nil {
				return err
			}
			if title != existing.Title {
				if err := s.ensureTitleNotExists(txCtx, title); err != nil {
					return err
				}
				existing.Title = title
			}
		}

		if in.Description != nil {
			existing.Description = strings.TrimSpace(*in.Description)
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

	return updated, nil
}

// DeleteJobRole は職種を削除します。候補者や予約から参照されている職種は
// 外部キー制約により ErrJobRoleInUse となります。
func (s *Service) DeleteJobRole(ctx context.Context, in DeleteJobRoleInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

// GetJobRole は職種を取得します。
func (s *Service) GetJobRole(ctx context.Context, in GetJobRoleInput) (*JobRole, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *JobRole
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

// ListJobRoles は職種の一覧を取得します。
func (s *Service) ListJobRoles(ctx context.Context, in ListJobRolesInput) (*ListJobRolesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		roles     []*JobRole
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListJobRolesFilter{
			ActiveOnly: in.ActiveOnly,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		roles = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListJobRolesResult{JobRoles: roles, NextPageToken: nextToken}, nil
}

// AddComplianceDocument は職種に書類定義を追加します。
func (s *Service) AddComplianceDocument(ctx context.Context, in AddComplianceDocumentInput) (*ComplianceDocument, error) {
	jobRoleID := strings.TrimSpace(in.JobRoleID)
	if jobRoleID == "" {
		return nil, fmt.Errorf("job role id: %w", ErrInvalidID)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidDocumentName
	}

	required := true
	if in.Required != nil {
		required = *in.Required
	}

	var created *ComplianceDocument
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, jobRoleID); err != nil {
			return err
		}

		now := s.clock.Now()
		doc := &ComplianceDocument{
			JobRoleID:      jobRoleID,
			Name:           name,
			Required:       required,
			RequiresExpiry: in.RequiresExpiry,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		result, err := s.repo.AddComplianceDocument(txCtx, doc)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// RemoveComplianceDocument は書類定義を削除します。
func (s *Service) RemoveComplianceDocument(ctx context.Context, in RemoveComplianceDocumentInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("document id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.RemoveComplianceDocument(txCtx, in.ID)
	})
}

// ListComplianceDocuments は職種の書類定義一覧を取得します。
func (s *Service) ListComplianceDocuments(ctx context.Context, in ListComplianceDocumentsInput) ([]*ComplianceDocument, error) {
	jobRoleID := strings.TrimSpace(in.JobRoleID)
	if jobRoleID == "" {
		return nil, fmt.Errorf("job role id: %w", ErrInvalidID)
	}

	var docs []*ComplianceDocument
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, jobRoleID); err != nil {
			return err
		}

		result, err := s.repo.ListComplianceDocuments(txCtx, jobRoleID)
		if err != nil {
			return err
		}
		docs = result
		return nil
	}); err != nil {
		return nil, err
	}

	return docs, nil
}

func (s *Service) ensureTitleNotExists(ctx context.Context, title string) error {
	role, err := s.repo.FindByTitle(ctx, title)
	if err != nil && !errors.Is(err, ErrJobRoleNotFound) {
		return err
	}
	if role != nil {
		return ErrTitleAlreadyExists
	}
	return nil
}

func normalizeTitle(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidTitle
	}
	return trimmed, nil
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
