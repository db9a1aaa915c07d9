package extract

import (
	"errors"
	"fmt"
)

// ConfigurationError means required provider credentials were missing for
// the selected method. Raised before any network call, never retried.
type ConfigurationError struct {
	Provider string
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing credential %s", e.Provider, e.Missing)
}

// ExtractionFailure means a cloud provider call errored (network, auth,
// quota, timeout). The orchestrator catches it and falls back to the
// client-side extractor.
type ExtractionFailure struct {
	Provider string
	Err      error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("%s: extraction failed: %v", e.Provider, e.Err)
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}

// ParseFailure means the PDF could not be opened or its text layer read.
// Fatal when it occurs during the fallback itself; elsewhere it only
// strengthens the classifier's scanned/complex signal.
type ParseFailure struct {
	Err error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("pdf unreadable: %v", e.Err)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsExtractionFailure reports whether err is an ExtractionFailure.
func IsExtractionFailure(err error) bool {
	var ef *ExtractionFailure
	return errors.As(err, &ef)
}

// IsParseFailure reports whether err is a ParseFailure.
func IsParseFailure(err error) bool {
	var pf *ParseFailure
	return errors.As(err, &pf)
}
