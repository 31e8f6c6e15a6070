package booking

import "testing"

func assignmentWithStatus(id string, status AssignmentStatus) *Assignment {
	return &Assignment{ID: id, CandidateID: "cand-" + id, Status: status}
}

func TestConfirmedCount(t *testing.T) {
	t.Parallel()

	assignments := []*Assignment{
		assignmentWithStatus("1", AssignmentStatusConfirmed),
		assignmentWithStatus("2", AssignmentStatusCompleted),
		assignmentWithStatus("3", AssignmentStatusCancelled),
		assignmentWithStatus("4", AssignmentStatusNoShow),
		nil,
	}

	if got := ConfirmedCount(assignments); got != 2 {
		t.Errorf("expected 2 confirmed, got %d", got)
	}
}

func TestRemainingPositions_ClampedAtZero(t *testing.T) {
	t.Parallel()

	assignments := []*Assignment{
		assignmentWithStatus("1", AssignmentStatusConfirmed),
		assignmentWithStatus("2", AssignmentStatusConfirmed),
		assignmentWithStatus("3", AssignmentStatusConfirmed),
	}

	if got := RemainingPositions(2, assignments); got != 0 {
		t.Errorf("expected 0 remaining when over-filled, got %d", got)
	}

	if got := RemainingPositions(5, assignments); got != 2 {
		t.Errorf("expected 2 remaining, got %d", got)
	}

	if got := RemainingPositions(3, nil); got != 3 {
		t.Errorf("expected full headcount with no assignments, got %d", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	confirmed := assignmentWithStatus("1", AssignmentStatusConfirmed)
	cancelled := assignmentWithStatus("2", AssignmentStatusCancelled)

	cases := []struct {
		name        string
		current     Status
		needed      int
		assignments []*Assignment
		want        Status
	}{
		{"no assignments stays open", StatusOpen, 2, nil, StatusOpen},
		{"one of two is partial", StatusOpen, 2, []*Assignment{confirmed}, StatusPartiallyFilled},
		{"two of two is filled", StatusPartiallyFilled, 2, []*Assignment{confirmed, assignmentWithStatus("3", AssignmentStatusConfirmed)}, StatusFilled},
		{"cancellation reopens", StatusFilled, 1, []*Assignment{cancelled}, StatusOpen},
		{"cancelled booking is sticky", StatusCancelled, 1, []*Assignment{confirmed}, StatusCancelled},
		{"completed keeps position filled", StatusFilled, 1, []*Assignment{assignmentWithStatus("4", AssignmentStatusCompleted)}, StatusFilled},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveStatus(tc.current, tc.needed, tc.assignments); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
