package pipeline

import (
	"errors"
	"fmt"
)

var ErrMissingInputFile = errors.New("missing input file")

// MissingColumnError reports a sensor column that was absent from the input
// and had to be synthesized.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %s missing, synthesized", e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	t, ok := target.(*MissingColumnError)
	if !ok {
		return false
	}
	return t.Column == "" || t.Column == e.Column
}
