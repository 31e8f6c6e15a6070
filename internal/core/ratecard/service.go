package ratecard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

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

// Service はレート表に関するユースケースをまとめます。
type Service struct {
	repo     Repository
	clock    Clock
	tx       TransactionManager
	auditor  audit.Recorder
	calendar HolidayCalendar
}

// UseCase はレート表ユースケースの公開インターフェースです。
type UseCase interface {
	CreateRateCard(ctx context.Context, in CreateRateCardInput) (*RateCard, error)
	UpdateRateCard(ctx context.Context, in UpdateRateCardInput) (*RateCard, error)
	GetRateCard(ctx context.Context, in GetRateCardInput) (*RateCard, error)
	ListRateCards(ctx context.Context, in ListRateCardsInput) (*ListRateCardsResult, error)
	QuoteRate(ctx context.Context, in QuoteRateInput) (*Quote, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, auditor audit.Recorder, calendar HolidayCalendar) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if auditor == nil {
		auditor = audit.Noop{}
	}
	return &Service{repo: repo, clock: clock, tx: tx, auditor: auditor, calendar: calendar}
}

// CreateRateCardInput はレート表作成時の入力です。
type CreateRateCardInput struct {
	ClientID      string
	JobRoleID     string
	EffectiveDate time.Time
	EndDate       *time.Time
	Active        *bool
	ClientRates   Rates
	WorkerRates   Rates
	Notes         string
	Actor         string
}

// UpdateRateCardInput はレート表更新時の入力です。
type UpdateRateCardInput struct {
	ID          string
	EndDate     *time.Time
	EndDateSet  bool
	Active      *bool
	ClientRates *Rates
	WorkerRates *Rates
	Notes       *string
	Actor       string
}

// GetRateCardInput はレート表取得時の入力です。
type GetRateCardInput struct {
	ID string
}

// ListRateCardsInput は一覧取得時の入力です。
type ListRateCardsInput struct {
	ClientID  string
	JobRoleID string
	PageSize  int
	PageToken string
}

// ListRateCardsResult は一覧取得結果を表します。
type ListRateCardsResult struct {
	RateCards     []*RateCard
	NextPageToken string
}

// QuoteRateInput はレート照会時の入力です。WorkType を省略した場合は
// ShiftStart から区分を自動判定します。AsOf を省略した場合は ShiftStart の
// 日付、それも無ければ現在日付を適用日とします。
type QuoteRateInput struct {
	ClientID   string
	JobRoleID  string
	WorkType   *WorkType
	ShiftStart *time.Time
	AsOf       *time.Time
}

// CreateRateCard は新しいレート表を作成します。
func (s *Service) CreateRateCard(ctx context.Context, in CreateRateCardInput) (*RateCard, error) {
	clientID, err := normalizeClientID(in.ClientID)
	if err != nil {
		return nil, err
	}

	jobRoleID, err := normalizeJobRoleID(in.JobRoleID)
	if err != nil {
		return nil, err
	}

	if in.EffectiveDate.IsZero() {
		return nil, ErrInvalidEffectiveDate
	}

	effective := dateOnly(in.EffectiveDate)
	end := normalizeDatePtr(in.EndDate)
	if err := validateRatePeriod(effective, end); err != nil {
		return nil, err
	}

	if err := validateRates(in.ClientRates); err != nil {
		return nil, err
	}
	if err := validateRates(in.WorkerRates); err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	var created *RateCard
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		card := &RateCard{
			ClientID:      clientID,
			JobRoleID:     jobRoleID,
			EffectiveDate: effective,
			EndDate:       end,
			Active:        active,
			ClientRates:   roundRates(in.ClientRates),
			WorkerRates:   roundRates(in.WorkerRates),
			Notes:         strings.TrimSpace(in.Notes),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result, err := s.repo.Create(txCtx, card)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "ratecard.created", "rate_card", created.ID, nil, created, s.clock.Now()))
	return created, nil
}

// UpdateRateCard はレート表を更新します。有効期間の開始日は変更できません。
func (s *Service) UpdateRateCard(ctx context.Context, in UpdateRateCardInput) (*RateCard, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before  *RateCard
		updated *RateCard
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		snapshot := *existing
		before = &snapshot

		if in.EndDateSet {
			existing.EndDate = normalizeDatePtr(in.EndDate)
		}

		if in.Active != nil {
			existing.Active = *in.Active
		}

		if in.ClientRates != nil {
			if err := validateRates(*in.ClientRates); err != nil {
				return err
			}
			existing.ClientRates = roundRates(*in.ClientRates)
		}

		if in.WorkerRates != nil {
			if err := validateRates(*in.WorkerRates); err != nil {
				return err
			}
			existing.WorkerRates = roundRates(*in.WorkerRates)
		}

		if in.Notes != nil {
			existing.Notes = strings.TrimSpace(*in.Notes)
		}

		if err := validateRatePeriod(existing.EffectiveDate, existing.EndDate); err != nil {
			return err
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

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "ratecard.updated", "rate_card", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

// GetRateCard はレート表を取得します。
func (s *Service) GetRateCard(ctx context.Context, in GetRateCardInput) (*RateCard, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *RateCard
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

// ListRateCards はレート表の一覧を取得します。
func (s *Service) ListRateCards(ctx context.Context, in ListRateCardsInput) (*ListRateCardsResult, error) {
	clientID, err := normalizeClientID(in.ClientID)
	if err != nil {
		return nil, err
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		cards     []*RateCard
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListRateCardsFilter{
			ClientID:  clientID,
			JobRoleID: strings.TrimSpace(in.JobRoleID),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			return err
		}
		cards = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListRateCardsResult{RateCards: cards, NextPageToken: nextToken}, nil
}

// QuoteRate は指定条件に適用されるレートを照会します。
func (s *Service) QuoteRate(ctx context.Context, in QuoteRateInput) (*Quote, error) {
	clientID, err := normalizeClientID(in.ClientID)
	if err != nil {
		return nil, err
	}

	jobRoleID, err := normalizeJobRoleID(in.JobRoleID)
	if err != nil {
		return nil, err
	}

	var wt WorkType
	switch {
	case in.WorkType != nil:
		if !IsValidWorkType(*in.WorkType) {
			return nil, ErrInvalidWorkType
		}
		wt = *in.WorkType
	case in.ShiftStart != nil:
		wt = ClassifyShift(*in.ShiftStart, s.calendar)
	default:
		return nil, ErrInvalidWorkType
	}

	asOf := s.clock.Now()
	if in.AsOf != nil {
		asOf = *in.AsOf
	} else if in.ShiftStart != nil {
		asOf = *in.ShiftStart
	}

	var quote *Quote
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		cards, err := s.repo.ListForClientRole(txCtx, clientID, jobRoleID)
		if err != nil {
			return err
		}

		result, err := ResolveRate(cards, jobRoleID, wt, asOf)
		if err != nil {
			return err
		}

		quote = result
		return nil
	}); err != nil {
		return nil, err
	}

	return quote, nil
}

func normalizeClientID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidClientID
	}
	return trimmed, nil
}

func normalizeJobRoleID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidJobRoleID
	}
	return trimmed, nil
}

func normalizeDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := dateOnly(*t)
	return &normalized
}

func validateRatePeriod(effective time.Time, end *time.Time) error {
	if end == nil {
		return nil
	}
	if end.Before(effective) {
		return ErrInvalidDateRange
	}
	return nil
}

func validateRates(r Rates) error {
	for _, rate := range []decimal.Decimal{r.Day, r.Night, r.Weekend, r.BankHoliday} {
		if rate.IsNegative() {
			return ErrInvalidRate
		}
	}
	return nil
}

func roundRates(r Rates) Rates {
	return Rates{
		Day:         r.Day.Round(2),
		Night:       r.Night.Round(2),
		Weekend:     r.Weekend.Round(2),
		BankHoliday: r.BankHoliday.Round(2),
	}
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
