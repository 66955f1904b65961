// Package codec centralizes record encoding.
//
// Codec selection is a breaking-change boundary: stored regions record the
// name of the codec that wrote them and refuse to open under another one.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly created regions.
var Default Codec = CBOR{}

// ByName returns a built-in codec by its stable name.
//
// Compressed variants are named "lz4+<inner>", e.g. "lz4+cbor".
func ByName(name string) (Codec, bool) {
	if inner, ok := strings.CutPrefix(name, lz4Prefix); ok {
		c, ok := ByName(inner)
		if !ok {
			return nil, false
		}
		return LZ4{Codec: c}, true
	}

	switch name {
	case "cbor":
		return CBOR{}, true
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// ErrTooLarge reports an encoding that exceeds its size bound.
type ErrTooLarge struct {
	Size int
	Max  int
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("encoded size %d exceeds maximum %d", e.Size, e.Max)
}

// MarshalBounded encodes v and fails with *ErrTooLarge if the result is
// longer than max bytes.
func MarshalBounded(c Codec, v any, max int) ([]byte, error) {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) > max {
		return nil, &ErrTooLarge{Size: len(b), Max: max}
	}
	return b, nil
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
