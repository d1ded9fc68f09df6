package tracer

import "errors"

// failure classes of the recording pipeline, matched with errors.Is
var (
	ErrEmptyPackage     = errors.New("nothing to commit, package is empty")
	ErrSubmitFailed     = errors.New("ledger submission failed")
	ErrConfirmTimeout   = errors.New("record confirmation timed out")
	ErrRecordNotFound   = errors.New("record not found on ledger")
	ErrMirrorDisabled   = errors.New("local mirror is disabled")
	ErrStatusFailed     = errors.New("record transaction failed on ledger")
	ErrRecorderMismatch = errors.New("record recorder mismatch")
	ErrNotVerifiable    = errors.New("record carries no content digest")
)
