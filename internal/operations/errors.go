package operations

import "errors"

var (
	// ErrRequestSkipped is returned when a file submission has no file; nothing is dispatched
	ErrRequestSkipped = errors.New("request skipped: no file selected")
	// ErrInvalidIndustry is returned for an industry outside the supported set
	ErrInvalidIndustry = errors.New("invalid industry")
)
