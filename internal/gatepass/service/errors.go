package service

import "errors"

// Input errors. Transports map these to 400-class responses; they are
// never written to the scan log.
var (
	ErrInvalidValidity = errors.New("validity hours out of range")
	ErrInvalidGate     = errors.New("unknown gate")
	ErrInvalidAction   = errors.New("unknown scan action")
	ErrInvalidAgent    = errors.New("agent is required")
	ErrInvalidRequest  = errors.New("invalid visit request")
	ErrRemarksRequired = errors.New("remarks are required to reject a request")
)
