package extract

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentParse = errors.New("document parse error")
	ErrNumericParse  = errors.New("numeric parse error")
)

// DocumentParseError means the input is not a well-formed document.
type DocumentParseError struct {
	Path string
	Err  error
}

func (e *DocumentParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrDocumentParse, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrDocumentParse, e.Path, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

func (e *DocumentParseError) Is(target error) bool { return target == ErrDocumentParse }

// NumericParseError means a numeric field was present but its text is not a finite number.
type NumericParseError struct {
	Field string
	Text  string
	Err   error
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("%v: field %s: invalid value %q", ErrNumericParse, e.Field, e.Text)
}

func (e *NumericParseError) Unwrap() error { return e.Err }

func (e *NumericParseError) Is(target error) bool { return target == ErrNumericParse }
