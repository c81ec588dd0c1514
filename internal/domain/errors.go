package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNotFound      = errors.New("review not found")
	ErrMalformedLine = errors.New("malformed review line")
)

// DecodeError reports a line that could not be decoded. Line is 1-based and
// zero when the position is unknown.
type DecodeError struct {
	Line   int
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, ErrMalformedLine, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedLine, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrMalformedLine }

// ValidationError is returned for user input that cannot become a review field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// ParseRating turns user-typed text into a rating. Both "4.5" and "4,5" are
// accepted; no range is enforced.
func ParseRating(s string) (float64, error) {
	t := strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if t == "" {
		return 0, &ValidationError{Field: "rating", Reason: "is required"}
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: "rating", Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return f, nil
}
