package candidate

import "context"

// Repository は候補者永続化の抽象です。FindByID と List はコンプライアンス
// 要件と提出記録のスナップショットを含めて返します。
type Repository interface {
	Create(ctx context.Context, c *Candidate) (*Candidate, error)
	Update(ctx context.Context, c *Candidate) (*Candidate, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Candidate, error)
	FindByEmail(ctx context.Context, email string) (*Candidate, error)
	List(ctx context.Context, filter ListCandidatesFilter) ([]*Candidate, string, error)

	CreateComplianceRecords(ctx context.Context, records []*ComplianceRecord) error
	FindComplianceRecord(ctx context.Context, id string) (*ComplianceRecord, error)
	UpdateComplianceRecord(ctx context.Context, record *ComplianceRecord) (*ComplianceRecord, error)
}

// RoleDirectory は職種のコンプライアンス書類定義を参照する抽象です。
type RoleDirectory interface {
	ListComplianceDocuments(ctx context.Context, jobRoleID string) ([]DocumentRequirement, error)
}

// ListCandidatesFilter は一覧取得用フィルタです。
type ListCandidatesFilter struct {
	JobRoleID   string
	Status      *Status
	AvailableOn string
	Limit       int
	Offset      int
}
