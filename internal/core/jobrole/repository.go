package jobrole

import "context"

// Repository は職種永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, role *JobRole) (*JobRole, error)
	Update(ctx context.Context, role *JobRole) (*JobRole, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*JobRole, error)
	FindByTitle(ctx context.Context, title string) (*JobRole, error)
	List(ctx context.Context, filter ListJobRolesFilter) ([]*JobRole, string, error)

	AddComplianceDocument(ctx context.Context, doc *ComplianceDocument) (*ComplianceDocument, error)
	RemoveComplianceDocument(ctx context.Context, id string) error
	ListComplianceDocuments(ctx context.Context, jobRoleID string) ([]*ComplianceDocument, error)
}

// ListJobRolesFilter は一覧取得用フィルタです。
type ListJobRolesFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
