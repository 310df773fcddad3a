package ledger

import "errors"

// Sentinel errors surfaced by the ledger and the services built on it.
// Handlers map these to HTTP statuses; anything else is treated as a
// store failure and reported separately from business rejections.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidReferral   = errors.New("invalid referral code")
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrDepositDisabled   = errors.New("deposits are disabled for this account")
	ErrWithdrawDisabled  = errors.New("withdrawals are disabled for this account")
	ErrTradeDisabled     = errors.New("trading is disabled for this account")
)
