package core

import "errors"

// Identity resolution failures. All of them are fatal to the request:
// no partial principal is ever produced.
var (
	ErrMalformedInitData = errors.New("malformed init data")
	ErrInvalidSignature  = errors.New("init data signature mismatch")
	ErrExpiredInitData   = errors.New("init data expired")
	ErrMissingUser       = errors.New("init data carries no user identity")
)

// Ledger failures.
var (
	ErrForbidden        = errors.New("principal does not own the target budget")
	ErrNotFound         = errors.New("not found")
	ErrCategoryMismatch = errors.New("category does not belong to the budget")
	ErrOwnerInvariant   = errors.New("budget owner must be exactly one of user or chat")
)

// Validation failures.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid transaction date")
)
