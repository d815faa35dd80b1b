package client

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchService matches every failure of the search endpoint.
	ErrSearchService = errors.New("search service error")
	// ErrTranslationService matches every failure of the translate endpoint.
	ErrTranslationService = errors.New("translation service error")
)

// ServiceError describes a failed call to one of the backend endpoints.
// StatusCode is zero for transport and decoding failures.
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP error: %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + " failed"
	}
}

func (e *ServiceError) Unwrap() []error {
	kind := ErrSearchService
	if e.Op == opTranslate {
		kind = ErrTranslationService
	}
	if e.Err != nil {
		return []error{kind, e.Err}
	}
	return []error{kind}
}
