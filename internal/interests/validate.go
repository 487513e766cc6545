// Package interests validates device interest names before they reach the registrar.
package interests

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// MaxNameLength is the longest accepted interest name.
	MaxNameLength = 164
	// MaxInterests is the largest accepted set of unique interests.
	MaxInterests = 5000
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_\-=@,.;]*$`)

var (
	ErrNameRequired       = errors.New("interest name is required")
	ErrForbiddenCharacter = errors.New("interest contains a forbidden character")
	ErrNameTooLong        = fmt.Errorf("interest is longer than the maximum of %d chars", MaxNameLength)
	ErrTooManyInterests   = fmt.Errorf("number of interests exceeds maximum of %d", MaxInterests)
)

// ValidationError describes a rejected interest name.
type ValidationError struct {
	Interest string
	Err      error
}

func (e *ValidationError) Error() string {
	if e == nil || e.Err == nil {
		return "invalid interest"
	}
	if errors.Is(e.Err, ErrForbiddenCharacter) {
		return fmt.Sprintf("interest %q contains a forbidden character. "+
			"Allowed characters are: ASCII upper/lower-case letters, numbers or one of _-=@,.;", e.Interest)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidateName checks the character set first, then the length.
func ValidateName(name string) error {
	// The pattern alone admits "", which no publish could target.
	if name == "" {
		return &ValidationError{Interest: name, Err: ErrNameRequired}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Interest: name, Err: ErrForbiddenCharacter}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Interest: name, Err: ErrNameTooLong}
	}
	return nil
}

// Normalize validates every name and returns the unique names in
// first-seen order. The size limit applies to the unique set.
func Normalize(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	if len(unique) > MaxInterests {
		return nil, fmt.Errorf("%w (got %d)", ErrTooManyInterests, len(unique))
	}
	return unique, nil
}
