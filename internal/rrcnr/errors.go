package rrcnr

import "errors"

var (
	// ErrInsufficientSpace is reported when a destination buffer cannot
	// hold a stored broadcast PDU. Nothing is written in that case.
	ErrInsufficientSpace = errors.New("destination buffer too small")

	// ErrSiIndexOutOfRange is reported for reads of an SI message index
	// that was never configured.
	ErrSiIndexOutOfRange = errors.New("si message index out of range")

	// ErrUeAlreadyExists is reported when adding an RNTI that already has
	// a context. The existing context is left untouched.
	ErrUeAlreadyExists = errors.New("ue already exists")

	// ErrNotRunning is reported by read paths used before a successful
	// Init (or when Init itself failed).
	ErrNotRunning = errors.New("rrc engine not running")

	// ErrAlreadyRunning is reported by a second Init without a Stop.
	ErrAlreadyRunning = errors.New("rrc engine already running")
)
