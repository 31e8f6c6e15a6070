package candidate

import "time"

// Status は候補者の状態を表します。
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusOnLeave    Status = "on_leave"
	StatusTerminated Status = "terminated"
)

// AvailabilityDateLayout は稼働可能日の日付表記です。
const AvailabilityDateLayout = "2006-01-02"

// Candidate は候補者エンティティです。Requirements と Compliance は
// 職種のコンプライアンス要件と候補者の提出状況のスナップショットで、
// 取得時に永続化層が読み込みます。
type Candidate struct {
	ID           string
	JobRoleID    string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	City         string
	Postcode     string
	Availability []string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Requirements []DocumentRequirement
	Compliance   []*ComplianceRecord
}

// FullName は姓名を連結して返します。
func (c *Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// IsAvailableOn は指定日（YYYY-MM-DD）に稼働可能かどうかを返します。
// 稼働可能日が未登録の候補者は常に不可として扱います。
func (c *Candidate) IsAvailableOn(date string) bool {
	for _, d := range c.Availability {
		if d == date {
			return true
		}
	}
	return false
}

// IsCompliant は候補者が職種の必須書類をすべて承認済みかどうかを返します。
func (c *Candidate) IsCompliant() bool {
	return IsCompliant(c.Requirements, c.Compliance)
}

// CompliancePercentage は必須書類の承認済み割合を返します。
func (c *Candidate) CompliancePercentage() int {
	return CompliancePercentage(c.Requirements, c.Compliance)
}

// ComplianceStatus は提出書類の審査状態を表します。
type ComplianceStatus string

const (
	ComplianceStatusPending  ComplianceStatus = "pending"
	ComplianceStatusApproved ComplianceStatus = "approved"
	ComplianceStatusRejected ComplianceStatus = "rejected"
	ComplianceStatusExpired  ComplianceStatus = "expired"
)

// DocumentRequirement は職種が定めるコンプライアンス書類定義のスナップショットです。
type DocumentRequirement struct {
	DocumentID     string
	Name           string
	Required       bool
	RequiresExpiry bool
}

// ComplianceRecord は候補者と書類定義を結ぶ提出記録です。
type ComplianceRecord struct {
	ID          string
	CandidateID string
	DocumentID  string
	Status      ComplianceStatus
	ExpiryDate  *time.Time
	Notes       string
	VerifiedBy  string
	VerifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Document    *DocumentRequirement
}

// IsExpired は提出記録の有効期限が過ぎているかどうかを返します。
func (r *ComplianceRecord) IsExpired(now time.Time) bool {
	if r.ExpiryDate == nil {
		return false
	}
	return r.ExpiryDate.Before(now)
}
