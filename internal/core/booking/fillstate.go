package booking

// ConfirmedCount は確定済み（confirmed または completed）のアサイン数を数えます。
func ConfirmedCount(assignments []*Assignment) int {
	count := 0
	for _, a := range assignments {
		if a == nil {
			continue
		}
		if a.Status == AssignmentStatusConfirmed || a.Status == AssignmentStatusCompleted {
			count++
		}
	}
	return count
}

// RemainingPositions は未充足の枠数を返します。確定数が必要人数を
// 上回っていても負の値にはなりません。
func RemainingPositions(needed int, assignments []*Assignment) int {
	remaining := needed - ConfirmedCount(assignments)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyFilled は確定数が必要人数に達しているかどうかを返します。
func IsFullyFilled(needed int, assignments []*Assignment) bool {
	return ConfirmedCount(assignments) >= needed
}

// DeriveStatus は確定数から予約の状態を導出します。キャンセル済みの予約は
// そのままキャンセル済みです。状態遷移は open → partially_filled → filled で、
// アサインのキャンセルにより逆方向へ戻ることもあります。
func DeriveStatus(current Status, needed int, assignments []*Assignment) Status {
	if current == StatusCancelled {
		return StatusCancelled
	}

	confirmed := ConfirmedCount(assignments)
	switch {
	case confirmed >= needed:
		return StatusFilled
	case confirmed > 0:
		return StatusPartiallyFilled
	default:
		return StatusOpen
	}
}
