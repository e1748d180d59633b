package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownTarget  = errors.New("unknown drop target")
	ErrStaleReconcile = errors.New("reconcile does not match pending mutation")
)
