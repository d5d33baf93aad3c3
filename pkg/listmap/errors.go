package listmap

import (
	"errors"
	"fmt"
)

// Argument validation errors. Returned synchronously by operations before any
// transport call is issued; all wrap ErrInvalidArgument.
var (
	ErrInvalidArgument = errors.New("invalid argument")

	ErrInvalidName  = fmt.Errorf("%w: list name must be non-empty", ErrInvalidArgument)
	ErrMissingID    = fmt.Errorf("%w: id must be set", ErrInvalidArgument)
	ErrWrongType    = fmt.Errorf("%w: item is not a record of this type", ErrInvalidArgument)
	ErrNilTransport = fmt.Errorf("%w: transport must not be nil", ErrInvalidArgument)
)

// ErrBadResponse marks a transport response whose shape does not match the
// placeholder it is meant to populate. Delivered through the rejected
// completion, never returned synchronously.
var ErrBadResponse = errors.New("bad response shape")

// Shape descriptors used in BadResponseError diagnostics.
const (
	ShapeSingle     = "single record"
	ShapeCollection = "record collection"
	ShapeSequence   = "sequence"
	ShapeMapping    = "mapping"
	ShapeScalar     = "scalar"
)

// BadResponseError reports a shape mismatch between the expected result and
// the response data. Length carries the sequence length when a single-record
// placeholder received a sequence of the wrong size, and is -1 otherwise.
type BadResponseError struct {
	Expected string
	Actual   string
	Length   int
}

func (e *BadResponseError) Error() string {
	if e.Length >= 0 {
		return fmt.Sprintf("%v: expected %s, got %s of length %d",
			ErrBadResponse, e.Expected, e.Actual, e.Length)
	}
	return fmt.Sprintf("%v: expected %s, got %s", ErrBadResponse, e.Expected, e.Actual)
}

func (e *BadResponseError) Unwrap() error { return ErrBadResponse }

// shapeOf classifies decoded JSON data for error reporting.
func shapeOf(data any) string {
	switch data.(type) {
	case []any:
		return ShapeSequence
	case map[string]any:
		return ShapeMapping
	default:
		return ShapeScalar
	}
}
