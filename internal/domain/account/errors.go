package account

import "errors"

var (
	ErrMissingAccountID = errors.New("missing account_id")
	ErrMissingUID       = errors.New("missing uid")
	ErrMissingPassword  = errors.New("missing password")
	ErrAccountNotFound  = errors.New("account not found")
)
