package booking

import "github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"

// アサイン不可の理由文。呼び出し側がそのまま表示できる形で保持します。
const (
	ReasonNotActive       = "Candidate is not active"
	ReasonRoleMismatch    = "Candidate job role does not match booking requirement"
	ReasonNotCompliant    = "Candidate is not compliant"
	ReasonNotAvailable    = "Candidate is not available on this date"
	ReasonAlreadyAssigned = "Candidate is already assigned to this booking"
)

// EligibilityResult はアサイン可否判定の結果です。Reasons には違反した
// 規則の理由がすべて入ります。
type EligibilityResult struct {
	CanAssign bool
	Reasons   []string
}

// CheckEligibility は候補者が予約にアサイン可能かどうかを判定します。
// 規則は順番に評価され、途中で打ち切らずに違反をすべて収集します。
func CheckEligibility(c *candidate.Candidate, b *BookingRequest, assignments []*Assignment) EligibilityResult {
	var reasons []string

	if c.Status != candidate.StatusActive {
		reasons = append(reasons, ReasonNotActive)
	}

	if c.JobRoleID != b.JobRoleID {
		reasons = append(reasons, ReasonRoleMismatch)
	}

	if !c.IsCompliant() {
		reasons = append(reasons, ReasonNotCompliant)
	}

	if !c.IsAvailableOn(b.ShiftDate()) {
		reasons = append(reasons, ReasonNotAvailable)
	}

	for _, a := range assignments {
		if a == nil {
			continue
		}
		if a.CandidateID == c.ID && a.Status != AssignmentStatusCancelled {
			reasons = append(reasons, ReasonAlreadyAssigned)
			break
		}
	}

	return EligibilityResult{CanAssign: len(reasons) == 0, Reasons: reasons}
}
