package candidate

// CompliancePercentage は必須書類に対する承認済み書類の割合を百分率（切り捨て）で返します。
// 必須書類が 1 件も無い職種では空虚に 100 を返します。
func CompliancePercentage(requirements []DocumentRequirement, records []*ComplianceRecord) int {
	requiredCount, approvedCount := complianceCounts(requirements, records)
	if requiredCount == 0 {
		return 100
	}
	return approvedCount * 100 / requiredCount
}

// IsCompliant は必須書類がすべて承認済みかどうかを返します。
// 必須書類が無い場合は常に true です。
func IsCompliant(requirements []DocumentRequirement, records []*ComplianceRecord) bool {
	requiredCount, approvedCount := complianceCounts(requirements, records)
	if requiredCount == 0 {
		return true
	}
	return requiredCount == approvedCount
}

func complianceCounts(requirements []DocumentRequirement, records []*ComplianceRecord) (required, approved int) {
	requiredDocs := make(map[string]struct{}, len(requirements))
	for _, req := range requirements {
		if req.Required {
			requiredDocs[req.DocumentID] = struct{}{}
		}
	}

	for _, rec := range records {
		if rec == nil || rec.Status != ComplianceStatusApproved {
			continue
		}
		if _, ok := requiredDocs[rec.DocumentID]; ok {
			approved++
		}
	}

	return len(requiredDocs), approved
}
