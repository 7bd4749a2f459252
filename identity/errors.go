package identity

import "errors"

// Client-visible error taxonomy. Every failure leaving the orchestrator is
// one of these five; collapseError is the only place component errors are
// translated, so no call site can accidentally leak a more specific cause.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConflict            = errors.New("email already registered")
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
	ErrInternal            = errors.New("internal error")
)
