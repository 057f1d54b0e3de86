package trading

import "errors"

// Error kinds returned by Bot. Callers match them with errors.Is.
var (
	// ErrInitialization means the venue client could not be built or reached.
	ErrInitialization = errors.New("initialization failed")

	// ErrValidation means the request was rejected locally; nothing was sent.
	ErrValidation = errors.New("invalid order")

	// ErrRemoteCall means the venue rejected or failed the call.
	ErrRemoteCall = errors.New("remote call failed")
)
