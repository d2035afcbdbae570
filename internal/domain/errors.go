package domain

import "errors"

// Failure taxonomy. Nothing here is fatal to a fetch cycle: each class
// degrades (skip source, drop record, bypass cache, mark sun unknown)
// and surfaces as a Warning next to the partial result.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrCacheUnavailable  = errors.New("cache unavailable")
	ErrExternalCompute   = errors.New("external compute failure")
)

// Warning is a non-blocking failure report attached to a pipeline result.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

func Warn(source string, err error) Warning {
	return Warning{Source: source, Message: err.Error()}
}
