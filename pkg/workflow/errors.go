package workflow

import "errors"

// Error taxonomy for workflow actions. Handlers map these onto response
// codes; everything else is treated as an internal failure and only the
// generic message is shown to the actor.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("you are not allowed to act on this document")
	ErrNotFound         = errors.New("document not found")
	ErrPersistence      = errors.New("persistence failure")
)
