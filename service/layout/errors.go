package layout

import "fmt"

// ErrInvalidLayout is returned when a persisted layout doesn't partition the tokens it is decoded with
type ErrInvalidLayout struct {
	// Section is the index of the offending section, or -1 if the layout as a whole is malformed
	Section int
	Reason  string
}

func (e ErrInvalidLayout) Error() string {
	if e.Section < 0 {
		return fmt.Sprintf("invalid collection layout: %s", e.Reason)
	}
	return fmt.Sprintf("invalid collection layout: section %d: %s", e.Section, e.Reason)
}
