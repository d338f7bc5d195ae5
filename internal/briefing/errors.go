package briefing

import (
	"errors"
	"fmt"
)

// SourceError wraps a failure to acquire articles. It is the only stage
// failure that aborts a briefing.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("fetch articles: %v", e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ParseError reports an oracle response that does not match the expected
// JSON schema.
type ParseError struct {
	Stage   string
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsSource(err error) bool {
	var s *SourceError
	return errors.As(err, &s)
}
