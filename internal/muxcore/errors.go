package muxcore

import "errors"

// Sentinel errors returned by the muxing core. Callers branch on these with
// errors.Is; everything else is an opaque wrapped error that poisons the
// muxer instance.
var (
	// ErrAgain signals a non-error suspension: the frames source has no
	// bytes ready yet. The caller should re-invoke Process once the
	// backing I/O unblocks.
	ErrAgain = errors.New("muxcore: again")

	// ErrNotFound is returned internally by the scheduler when every
	// stream has exhausted its frames for the current segment. It never
	// escapes to the host.
	ErrNotFound = errors.New("muxcore: not found")

	// ErrBadRequest covers request-shape violations: SAMPLE-AES requested
	// against a non-AAC audio track, or an I-frame playlist requested
	// against content that doesn't support simulation.
	ErrBadRequest = errors.New("muxcore: bad request")

	// ErrBadData means a successful frames-source read produced no bytes
	// after the muxer had already suspended once (with no frame-part or
	// clip boundary crossed since) — a truncated input.
	ErrBadData = errors.New("muxcore: bad data")

	// ErrUnexpected marks an internal invariant violation.
	ErrUnexpected = errors.New("muxcore: unexpected internal state")
)
