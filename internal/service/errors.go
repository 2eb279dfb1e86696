package service

import "errors"

// Error categories surfaced to the HTTP layer. Service errors wrap exactly
// one of these so handlers can map them with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrAssetMissing    = errors.New("asset missing")
	ErrAlreadyReviewed = errors.New("evidence already reviewed")
	ErrStorage         = errors.New("storage failure")
)
