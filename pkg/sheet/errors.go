package sheet

import "fmt"

// LoadError reports that a workbook could not be turned into a RawTable:
// the input is unreadable, is not a valid workbook, or lacks the sheet.
type LoadError struct {
	// Source names the input, usually a file name. May be empty.
	Source string

	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load error: %v", e.Err)
	}
	return fmt.Sprintf("load error: %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
