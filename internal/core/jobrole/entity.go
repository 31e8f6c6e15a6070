package jobrole

import "time"

// JobRole は職種エンティティです。
type JobRole struct {
	ID          string
	Title       string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComplianceDocument は職種に紐づくコンプライアンス書類定義です。
type ComplianceDocument struct {
	ID             string
	JobRoleID      string
	Name           string
	Required       bool
	RequiresExpiry bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
