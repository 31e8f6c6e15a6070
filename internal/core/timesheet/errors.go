package timesheet

import "errors"

var (
	ErrInvalidID              = errors.New("timesheet: invalid id")
	ErrInvalidAssignmentID    = errors.New("timesheet: invalid assignment id")
	ErrInvalidStatus          = errors.New("timesheet: invalid status")
	ErrInvalidPageSize        = errors.New("timesheet: invalid page size")
	ErrInvalidPageToken       = errors.New("timesheet: invalid page token")
	ErrTimesheetNotFound      = errors.New("timesheet: not found")
	ErrAssignmentNotFound     = errors.New("timesheet: assignment not found")
	ErrAssignmentNotCompleted = errors.New("timesheet: assignment is not completed")
	ErrAlreadyExists          = errors.New("timesheet: timesheet already exists for assignment")
	ErrNotSubmittable         = errors.New("timesheet: only draft timesheets can be submitted")
	ErrNotReviewable          = errors.New("timesheet: only submitted timesheets can be reviewed")
	ErrRejectReasonRequired   = errors.New("timesheet: reject reason is required")
)
