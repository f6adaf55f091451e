package model

import "errors"

// Error kinds shared across packages. Callers wrap them with fmt.Errorf("...: %w")
// and test with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrNavigation    = errors.New("navigation error")
	ErrStepExecution = errors.New("step execution error")
	ErrEnrichment    = errors.New("enrichment error")
	ErrPersistence   = errors.New("persistence error")
)
