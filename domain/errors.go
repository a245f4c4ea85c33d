package domain

import "errors"

var (
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotSignedIn indicates an action needs an identity the session does not have.
	ErrNotSignedIn = errors.New("sign in required")

	// ErrInvalidAmount indicates a tip amount that is zero, negative or unparsable.
	ErrInvalidAmount = errors.New("tip amount must be greater than zero")

	// ErrTransferRejected indicates the wallet refused or failed the transfer.
	ErrTransferRejected = errors.New("transfer rejected")

	// ErrNotConfirmed indicates the transfer was submitted but never confirmed on chain.
	ErrNotConfirmed = errors.New("transfer not confirmed")

	// ErrNotFound indicates a missing item or record.
	ErrNotFound = errors.New("not found")

	// ErrEmptyUsername indicates the user submitted an empty guest name.
	ErrEmptyUsername = errors.New("username cannot be empty")
)
