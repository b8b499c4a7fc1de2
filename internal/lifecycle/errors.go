package lifecycle

import "errors"

// Errors surfaced by the engine on top of the ledger's NotFound/Conflict/
// Unavailable. InvalidTransition means the reservation's current status does
// not permit the requested action; Forbidden means the actor may not perform
// it.
var (
	ErrInvalidTransition = errors.New("transition not permitted from current status")
	ErrForbidden         = errors.New("actor not permitted to perform this action")
)
