package properties

import (
	"errors"
	"fmt"
)

// ErrIntOverflow reports an integer property too large for int.
var ErrIntOverflow = errors.New("integer property out of range")

// MissingPropertyError reports a required property that is absent from the bag.
type MissingPropertyError struct {
	Path string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("Can't find property '%s'", e.Path)
}

// TypeMismatchError reports a present property holding a value of the wrong kind.
type TypeMismatchError struct {
	Path string
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("property '%s' must be a %s, got %s", e.Path, e.Want, e.Got)
}

// IsMissing reports whether err is, or wraps, a MissingPropertyError.
func IsMissing(err error) bool {
	var missing *MissingPropertyError
	return errors.As(err, &missing)
}
