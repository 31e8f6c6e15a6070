package booking

import (
	"reflect"
	"testing"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
)

func eligibleCandidate() *candidate.Candidate {
	return &candidate.Candidate{
		ID:           "cand-1",
		JobRoleID:    "role-1",
		Status:       candidate.StatusActive,
		Availability: []string{"2025-06-10"},
		Requirements: []candidate.DocumentRequirement{
			{DocumentID: "doc-1", Name: "DBS Check", Required: true},
		},
		Compliance: []*candidate.ComplianceRecord{
			{DocumentID: "doc-1", Status: candidate.ComplianceStatusApproved},
		},
	}
}

func openBooking() *BookingRequest {
	return &BookingRequest{
		ID:               "booking-1",
		ClientID:         "client-1",
		JobRoleID:        "role-1",
		ShiftStart:       time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		ShiftEnd:         time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC),
		CandidatesNeeded: 2,
		Status:           StatusOpen,
	}
}

func TestCheckEligibility_AllRulesPass(t *testing.T) {
	t.Parallel()

	result := CheckEligibility(eligibleCandidate(), openBooking(), nil)

	if !result.CanAssign {
		t.Fatalf("expected eligible, got reasons %v", result.Reasons)
	}
	if len(result.Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", result.Reasons)
	}
}

func TestCheckEligibility_SingleRuleViolations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(c *candidate.Candidate, b *BookingRequest) []*Assignment
		want   string
	}{
		{
			name: "inactive candidate",
			mutate: func(c *candidate.Candidate, _ *BookingRequest) []*Assignment {
				c.Status = candidate.StatusOnLeave
				return nil
			},
			want: "Candidate is not active",
		},
		{
			name: "role mismatch",
			mutate: func(c *candidate.Candidate, _ *BookingRequest) []*Assignment {
				c.JobRoleID = "role-other"
				return nil
			},
			want: "Candidate job role does not match booking requirement",
		},
		{
			name: "missing compliance",
			mutate: func(c *candidate.Candidate, _ *BookingRequest) []*Assignment {
				c.Compliance[0].Status = candidate.ComplianceStatusPending
				return nil
			},
			want: "Candidate is not compliant",
		},
		{
			name: "not available",
			mutate: func(c *candidate.Candidate, _ *BookingRequest) []*Assignment {
				c.Availability = []string{"2025-06-11"}
				return nil
			},
			want: "Candidate is not available on this date",
		},
		{
			name: "already assigned",
			mutate: func(c *candidate.Candidate, b *BookingRequest) []*Assignment {
				return []*Assignment{{ID: "assign-1", BookingID: b.ID, CandidateID: c.ID, Status: AssignmentStatusConfirmed}}
			},
			want: "Candidate is already assigned to this booking",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := eligibleCandidate()
			b := openBooking()
			assignments := tc.mutate(c, b)

			result := CheckEligibility(c, b, assignments)
			if result.CanAssign {
				t.Fatal("expected ineligible")
			}
			if len(result.Reasons) != 1 || result.Reasons[0] != tc.want {
				t.Errorf("expected exactly [%q], got %v", tc.want, result.Reasons)
			}
		})
	}
}

func TestCheckEligibility_CollectsAllViolations(t *testing.T) {
	t.Parallel()

	c := eligibleCandidate()
	c.Status = candidate.StatusInactive
	c.JobRoleID = "role-other"
	c.Availability = nil

	result := CheckEligibility(c, openBooking(), nil)

	want := []string{
		"Candidate is not active",
		"Candidate job role does not match booking requirement",
		"Candidate is not available on this date",
	}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Errorf("expected %v, got %v", want, result.Reasons)
	}
}

func TestCheckEligibility_CancelledAssignmentDoesNotBlock(t *testing.T) {
	t.Parallel()

	c := eligibleCandidate()
	b := openBooking()
	assignments := []*Assignment{
		{ID: "assign-1", BookingID: b.ID, CandidateID: c.ID, Status: AssignmentStatusCancelled},
	}

	result := CheckEligibility(c, b, assignments)
	if !result.CanAssign {
		t.Fatalf("cancelled assignment must not count, got reasons %v", result.Reasons)
	}
}

func TestCheckEligibility_EmptyAvailabilityNeverMatches(t *testing.T) {
	t.Parallel()

	c := eligibleCandidate()
	c.Availability = []string{}

	result := CheckEligibility(c, openBooking(), nil)
	if result.CanAssign {
		t.Fatal("expected ineligible with empty availability")
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != ReasonNotAvailable {
		t.Errorf("expected availability reason, got %v", result.Reasons)
	}
}
