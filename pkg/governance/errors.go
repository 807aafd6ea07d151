package governance

import "errors"

// Error is a governance validation error. It is returned before any I/O happens.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) UserError() {}

var (
	ErrNoWallet                = &Error{Code: "NO_WALLET", Message: "failed to get wallet provider"}
	ErrNoAddress               = &Error{Code: "NO_ADDRESS", Message: "failed to get current address"}
	ErrAlreadyVoted            = &Error{Code: "ALREADY_VOTED", Message: "already voted"}
	ErrNotEnoughPowerToVote    = &Error{Code: "NOT_ENOUGH_POWER_TO_VOTE", Message: "not enough power to vote"}
	ErrNotEnoughPowerToPropose = &Error{Code: "NOT_ENOUGH_POWER_TO_PROPOSE", Message: "not enough power to create a proposal"}
	ErrInvalidChoice           = &Error{Code: "INVALID_CHOICE", Message: "invalid choice"}
	ErrEmptyProposal           = &Error{Code: "EMPTY_PROPOSAL", Message: "proposal needs a title and a description"}
)

var ErrProposalNotFound = errors.New("proposal not found")
