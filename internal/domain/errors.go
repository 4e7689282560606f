package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidCurrency        = errors.New("unsupported currency code")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountInactive        = errors.New("account is not active")
	ErrForbidden              = errors.New("account does not belong to user")
	ErrSelfTransfer           = errors.New("cannot transfer to same account")
	ErrTransferTypeMismatch   = errors.New("transfer type does not match account ownership")
	ErrCurrencyMismatch       = errors.New("currency does not match source account")
	ErrConversionFailed       = errors.New("currency conversion failed")
	ErrRateNotFound           = errors.New("exchange rate not found")
	ErrDuplicateTransactionID = errors.New("transaction reference already exists")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidStateTransition = errors.New("payment is not in pending status")
	ErrTransientFailure       = errors.New("storage contention, retry")
)
