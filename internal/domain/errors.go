package domain

import "errors"

var (
	ErrInvalidDateFormat   = errors.New("start_date should be in RFC3339 format")
	ErrInvalidIncrement    = errors.New("increment must be a positive number of days")
	ErrMissingAccessToken  = errors.New("accessToken is required")
	ErrAccountsUnavailable = errors.New("accounts unavailable")

	// ErrMissingCommissionRange is returned by the programme details
	// normalizer when no "amount" or "percentage" range is present.
	ErrMissingCommissionRange = errors.New("missing commission range")

	// ErrNoTransactionParts is returned when a transaction carries an empty
	// transactionParts list.
	ErrNoTransactionParts = errors.New("no transaction parts")
)
