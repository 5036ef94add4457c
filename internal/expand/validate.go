package expand

import (
	"errors"
	"unicode/utf8"
)

var errProseTooShort = errors.New("leaf prose too short")

// validateProse rejects oracle output with no usable prose once references
// are stripped. Content is never judged.
func validateProse(prose string) error {
	if utf8.RuneCountInString(prose) < 3 {
		return errProseTooShort
	}
	return nil
}
