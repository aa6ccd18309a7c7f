package rental

import "errors"

var (
	// ErrDuplicate indicates an insert or update would break uniqueness.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound indicates the update or delete target does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAllocatorExhausted indicates no loan ids are left.
	ErrAllocatorExhausted = errors.New("loan id space exhausted")
	// ErrInvalidLoanID indicates a restored id is outside the allocator range.
	ErrInvalidLoanID = errors.New("invalid loan id")
	// ErrNoUndoableState indicates the history cursor is at its start.
	ErrNoUndoableState = errors.New("no undoable state")
	// ErrNoRedoableState indicates the history cursor is at its end.
	ErrNoRedoableState = errors.New("no redoable state")

	// ErrInvalidField indicates user input failed validation.
	ErrInvalidField = errors.New("invalid field")
	// ErrLoanAlreadyReturned indicates a return on a loan that is closed.
	ErrLoanAlreadyReturned = errors.New("loan already returned")
	// ErrInvalidReturnTime indicates a return time before the loan started.
	ErrInvalidReturnTime = errors.New("return time precedes loan start")
)
