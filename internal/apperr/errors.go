package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested order, group or courier does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotEligible indicates that the courier is not allowed to act on the offer (HTTP 403).
var ErrNotEligible = errors.New("courier not eligible for offer")

// ErrAlreadyAssigned indicates that another courier already accepted the offer (HTTP 409).
var ErrAlreadyAssigned = errors.New("order already assigned")

// ErrConflict indicates a uniqueness or state conflict.
var ErrConflict = errors.New("conflict")
