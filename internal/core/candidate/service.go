package candidate

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
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

// Service は候補者に関するユースケースをまとめます。
type Service struct {
	repo    Repository
	roles   RoleDirectory
	clock   Clock
	tx      TransactionManager
	auditor audit.Recorder
}

// UseCase は候補者ユースケースの公開インターフェースです。
type UseCase interface {
	CreateCandidate(ctx context.Context, in CreateCandidateInput) (*Candidate, error)
	UpdateCandidate(ctx context.Context, in UpdateCandidateInput) (*Candidate, error)
	DeleteCandidate(ctx context.Context, in DeleteCandidateInput) error
	GetCandidate(ctx context.Context, in GetCandidateInput) (*Candidate, error)
	ListCandidates(ctx context.Context, in ListCandidatesInput) (*ListCandidatesResult, error)
	ReviewComplianceRecord(ctx context.Context, in ReviewComplianceRecordInput) (*ComplianceRecord, error)
	ComplianceSummary(ctx context.Context, in ComplianceSummaryInput) (*ComplianceSummaryResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, roles RoleDirectory, clock Clock, tx TransactionManager, auditor audit.Recorder) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if auditor == nil {
		auditor = audit.Noop{}
	}
	return &Service{repo: repo, roles: roles, clock: clock, tx: tx, auditor: auditor}
}

// CreateCandidateInput は候補者作成時の入力です。
type CreateCandidateInput struct {
	JobRoleID    string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	City         string
	Postcode     string
	Availability []string
	Status       *Status
	Actor        string
}

// UpdateCandidateInput は候補者更新時の入力です。
type UpdateCandidateInput struct {
	ID              string
	FirstName       *string
	LastName        *string
	Phone           *string
	City            *string
	Postcode        *string
	Availability    []string
	AvailabilitySet bool
	Status          *Status
	Actor           string
}

// DeleteCandidateInput は候補者削除時の入力です。
type DeleteCandidateInput struct {
	ID string
}

// GetCandidateInput は候補者取得時の入力です。
type GetCandidateInput struct {
	ID string
}

// ListCandidatesInput は一覧取得時の入力です。
type ListCandidatesInput struct {
	JobRoleID   string
	Status      *Status
	AvailableOn string
	PageSize    int
	PageToken   string
}

// ListCandidatesResult は一覧取得結果を表します。
type ListCandidatesResult struct {
	Candidates    []*Candidate
	NextPageToken string
}

// ReviewComplianceRecordInput は提出書類の審査時の入力です。
type ReviewComplianceRecordInput struct {
	RecordID   string
	Status     ComplianceStatus
	ExpiryDate *time.Time
	Notes      string
	Actor      string
}

// ComplianceSummaryInput はコンプライアンス状況照会時の入力です。
type ComplianceSummaryInput struct {
	CandidateID string
}

// ComplianceSummaryResult はコンプライアンス状況の集計結果です。
type ComplianceSummaryResult struct {
	CandidateID string
	Percentage  int
	Compliant   bool
	Records     []*ComplianceRecord
}

// CreateCandidate は新しい候補者を作成し、職種の書類定義ごとに
// 未提出のコンプライアンス記録を 1 件ずつ作成します。
func (s *Service) CreateCandidate(ctx context.Context, in CreateCandidateInput) (*Candidate, error) {
	jobRoleID := strings.TrimSpace(in.JobRoleID)
	if jobRoleID == "" {
		return nil, ErrInvalidJobRoleID
	}

	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return nil, ErrInvalidFirstName
	}

	lastName := strings.TrimSpace(in.LastName)
	if lastName == "" {
		return nil, ErrInvalidLastName
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	availability, err := normalizeAvailability(in.Availability)
	if err != nil {
		return nil, err
	}

	status := StatusActive
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status = *in.Status
	}

	var created *Candidate
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailNotExists(txCtx, email); err != nil {
			return err
		}

		requirements, err := s.roles.ListComplianceDocuments(txCtx, jobRoleID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		c := &Candidate{
			JobRoleID:    jobRoleID,
			FirstName:    firstName,
			LastName:     lastName,
			Email:        email,
			Phone:        strings.TrimSpace(in.Phone),
			City:         strings.TrimSpace(in.City),
			Postcode:     strings.TrimSpace(in.Postcode),
			Availability: availability,
			Status:       status,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		result, err := s.repo.Create(txCtx, c)
		if err != nil {
			return err
		}

		records := make([]*ComplianceRecord, 0, len(requirements))
		for _, req := range requirements {
			records = append(records, &ComplianceRecord{
				CandidateID: result.ID,
				DocumentID:  req.DocumentID,
				Status:      ComplianceStatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		if err := s.repo.CreateComplianceRecords(txCtx, records); err != nil {
			return err
		}

		created = result
		created.Requirements = requirements
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "candidate.created", "candidate", created.ID, nil, created, s.clock.Now()))
	return created, nil
}

// UpdateCandidate は候補者情報を更新します。
func (s *Service) UpdateCandidate(ctx context.Context, in UpdateCandidateInput) (*Candidate, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before  *Candidate
		updated *Candidate
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		snapshot := *existing
		before = &snapshot

		if in.FirstName != nil {
			name := strings.TrimSpace(*in.FirstName)
			if name == "" {
				return ErrInvalidFirstName
			}
			existing.FirstName = name
		}

		if in.LastName != nil {
			name := strings.TrimSpace(*in.LastName)
			if name == "" {
				return ErrInvalidLastName
			}
			existing.LastName = name
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

		if in.AvailabilitySet {
			availability, err := normalizeAvailability(in.Availability)
			if err != nil {
				return err
			}
			existing.Availability = availability
		}

		if in.Status != nil {
			if !isValidStatus(*in.Status) {
				return ErrInvalidStatus
			}
			existing.Status = *in.Status
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

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "candidate.updated", "candidate", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

// DeleteCandidate は候補者を削除します。
func (s *Service) DeleteCandidate(ctx context.Context, in DeleteCandidateInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

// GetCandidate は候補者を取得します。
func (s *Service) GetCandidate(ctx context.Context, in GetCandidateInput) (*Candidate, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Candidate
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

// ListCandidates は候補者の一覧を取得します。
func (s *Service) ListCandidates(ctx context.Context, in ListCandidatesInput) (*ListCandidatesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	availableOn := strings.TrimSpace(in.AvailableOn)
	if availableOn != "" {
		if _, err := time.Parse(AvailabilityDateLayout, availableOn); err != nil {
			return nil, ErrInvalidAvailabilityDate
		}
	}

	var (
		candidates []*Candidate
		nextToken  string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListCandidatesFilter{
			JobRoleID:   strings.TrimSpace(in.JobRoleID),
			Status:      statusPtr,
			AvailableOn: availableOn,
			Limit:       limit,
			Offset:      offset,
		})
		if err != nil {
			return err
		}
		candidates = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListCandidatesResult{Candidates: candidates, NextPageToken: nextToken}, nil
}

// ReviewComplianceRecord は提出書類を審査し状態を更新します。
// 有効期限が必須の書類を期限なしで承認することはできません。
func (s *Service) ReviewComplianceRecord(ctx context.Context, in ReviewComplianceRecordInput) (*ComplianceRecord, error) {
	if strings.TrimSpace(in.RecordID) == "" {
		return nil, fmt.Errorf("record id: %w", ErrInvalidID)
	}

	switch in.Status {
	case ComplianceStatusApproved, ComplianceStatusRejected, ComplianceStatusExpired:
	default:
		return nil, ErrInvalidRecordStatus
	}

	var (
		before  *ComplianceRecord
		updated *ComplianceRecord
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindComplianceRecord(txCtx, in.RecordID)
		if err != nil {
			return err
		}
		snapshot := *existing
		before = &snapshot

		if in.Status == ComplianceStatusApproved && in.ExpiryDate == nil &&
			existing.Document != nil && existing.Document.RequiresExpiry {
			return ErrExpiryDateRequired
		}

		now := s.clock.Now()
		existing.Status = in.Status
		existing.ExpiryDate = in.ExpiryDate
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			existing.Notes = notes
		}
		if in.Status == ComplianceStatusApproved || in.Status == ComplianceStatusRejected {
			existing.VerifiedBy = strings.TrimSpace(in.Actor)
			existing.VerifiedAt = &now
		}
		existing.UpdatedAt = now

		result, err := s.repo.UpdateComplianceRecord(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "candidate.compliance_reviewed", "compliance_record", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

// ComplianceSummary は候補者のコンプライアンス状況を集計します。
func (s *Service) ComplianceSummary(ctx context.Context, in ComplianceSummaryInput) (*ComplianceSummaryResult, error) {
	if strings.TrimSpace(in.CandidateID) == "" {
		return nil, fmt.Errorf("candidate id: %w", ErrInvalidID)
	}

	var result *ComplianceSummaryResult
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.CandidateID)
		if err != nil {
			return err
		}

		result = &ComplianceSummaryResult{
			CandidateID: found.ID,
			Percentage:  found.CompliancePercentage(),
			Compliant:   found.IsCompliant(),
			Records:     found.Compliance,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrCandidateNotFound) {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyExists
	}
	return nil
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

// normalizeAvailability は日付表記を検証し、重複を除いて昇順に整えます。
func normalizeAvailability(dates []string) ([]string, error) {
	seen := make(map[string]struct{}, len(dates))
	normalized := make([]string, 0, len(dates))
	for _, raw := range dates {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if _, err := time.Parse(AvailabilityDateLayout, trimmed); err != nil {
			return nil, ErrInvalidAvailabilityDate
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	sort.Strings(normalized)
	return normalized, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive, StatusOnLeave, StatusTerminated:
		return true
	default:
		return false
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
