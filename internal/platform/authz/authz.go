package authz

// Role は呼び出し元の役割を表します。認証そのものは上位レイヤーの責務で、
// ここでは役割と操作の組み合わせの許可だけを判定します。
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleFinance     Role = "finance"
	RoleViewer      Role = "viewer"
)

// Action は認可対象の操作名です。リソース名とドットで区切ります。
type Action string

const (
	ActionJobRoleRead     Action = "job_role.read"
	ActionJobRoleWrite    Action = "job_role.write"
	ActionClientRead      Action = "client.read"
	ActionClientWrite     Action = "client.write"
	ActionCandidateRead   Action = "candidate.read"
	ActionCandidateWrite  Action = "candidate.write"
	ActionComplianceRead  Action = "compliance.read"
	ActionComplianceWrite Action = "compliance.write"
	ActionRateCardRead    Action = "rate_card.read"
	ActionRateCardWrite   Action = "rate_card.write"
	ActionBookingRead     Action = "booking.read"
	ActionBookingWrite    Action = "booking.write"
	ActionAssignmentWrite Action = "assignment.write"
	ActionTimesheetRead   Action = "timesheet.read"
	ActionTimesheetWrite  Action = "timesheet.write"
	ActionTimesheetReview Action = "timesheet.review"
	ActionInvoiceRead     Action = "invoice.read"
	ActionInvoiceWrite    Action = "invoice.write"
)

// Policy は役割と操作の許可表です。表に無い組み合わせはすべて拒否されます。
type Policy struct {
	allow map[Role]map[Action]struct{}
}

// NewPolicy は空の Policy を生成します。
func NewPolicy() *Policy {
	return &Policy{allow: make(map[Role]map[Action]struct{})}
}

// Grant は役割に操作を許可します。
func (p *Policy) Grant(role Role, actions ...Action) *Policy {
	set, ok := p.allow[role]
	if !ok {
		set = make(map[Action]struct{})
		p.allow[role] = set
	}
	for _, action := range actions {
		set[action] = struct{}{}
	}
	return p
}

// Allows は役割が操作を実行できるかどうかを返します。
func (p *Policy) Allows(role Role, action Action) bool {
	if p == nil {
		return false
	}
	set, ok := p.allow[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// DefaultPolicy は既定の許可表を返します。admin は全操作、coordinator は
// 手配業務、finance はタイムシート査定と請求、viewer は参照のみです。
func DefaultPolicy() *Policy {
	readActions := []Action{
		ActionJobRoleRead, ActionClientRead, ActionCandidateRead,
		ActionComplianceRead, ActionRateCardRead, ActionBookingRead,
		ActionTimesheetRead, ActionInvoiceRead,
	}

	writeActions := []Action{
		ActionJobRoleWrite, ActionClientWrite, ActionCandidateWrite,
		ActionComplianceWrite, ActionRateCardWrite, ActionBookingWrite,
		ActionAssignmentWrite, ActionTimesheetWrite, ActionTimesheetReview,
		ActionInvoiceWrite,
	}

	p := NewPolicy()
	p.Grant(RoleAdmin, readActions...)
	p.Grant(RoleAdmin, writeActions...)

	p.Grant(RoleCoordinator, readActions...)
	p.Grant(RoleCoordinator,
		ActionCandidateWrite, ActionComplianceWrite,
		ActionBookingWrite, ActionAssignmentWrite, ActionTimesheetWrite,
	)

	p.Grant(RoleFinance, readActions...)
	p.Grant(RoleFinance, ActionRateCardWrite, ActionTimesheetReview, ActionInvoiceWrite)

	p.Grant(RoleViewer, readActions...)

	return p
}
