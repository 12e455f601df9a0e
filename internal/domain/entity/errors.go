package entity

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or does not belong
	// to the requesting user. The HTTP layer maps both cases to 404 so that
	// cross-tenant probing cannot distinguish them.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyApproved is returned when approving an invoice that is no
	// longer Pending.
	ErrAlreadyApproved = errors.New("invoice is already approved")

	// ErrInvalidInput is returned by services when request validation fails
	// before any persistence.
	ErrInvalidInput = errors.New("invalid input")
)
