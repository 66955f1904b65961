package linguastore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/linguastore/codec"
	"github.com/hupe1980/linguastore/internal/cell"
	"github.com/hupe1980/linguastore/internal/compress"
	"github.com/hupe1980/linguastore/internal/memory"
	"github.com/hupe1980/linguastore/internal/omap"
	"github.com/hupe1980/linguastore/internal/region"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrRecordTooLarge is matched by every *RecordTooLargeError.
	ErrRecordTooLarge = errors.New("record too large")
	// ErrInvalidRecord is matched by every *InvalidRecordError.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrCorrupt indicates stored bytes that fail validation or decoding.
	ErrCorrupt = errors.New("storage corrupt")
	// ErrLayoutMismatch indicates a store written with another record size
	// bound or codec.
	ErrLayoutMismatch = errors.New("storage layout mismatch")
	// ErrExhausted indicates the address space cannot grow any further.
	ErrExhausted = errors.New("address space exhausted")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
	// ErrExists is returned when a restore target already exists.
	ErrExists = errors.New("already exists")
)

// Collection identifies one of the entity collections.
type Collection string

const (
	// CollectionContent holds language learning content records.
	CollectionContent Collection = "content"
	// CollectionStudyGroups holds study group records.
	CollectionStudyGroups Collection = "study_groups"
)

// DisplayName returns the human-readable entity name used in messages.
func (c Collection) DisplayName() string {
	switch c {
	case CollectionContent:
		return "Language learning content"
	case CollectionStudyGroups:
		return "Study group"
	default:
		return string(c)
	}
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Collection Collection
	ID         uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id=%d not found", e.Collection.DisplayName(), e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RecordTooLargeError reports a record whose encoding exceeds MaxRecordSize.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type RecordTooLargeError struct {
	Collection Collection
	Size       int
	Max        int
	cause      error
}

func (e *RecordTooLargeError) Error() string {
	return fmt.Sprintf("%s record encodes to %d bytes, maximum is %d", e.Collection.DisplayName(), e.Size, e.Max)
}

func (e *RecordTooLargeError) Unwrap() error { return e.cause }

// Is reports whether target is ErrRecordTooLarge.
func (e *RecordTooLargeError) Is(target error) bool { return target == ErrRecordTooLarge }

// InvalidRecordError reports a payload field the store cannot persist
// faithfully. Field is the JSON name of the field, with an index for list
// elements (e.g. "members[2]").
type InvalidRecordError struct {
	Collection Collection
	Field      string
	Reason     string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("%s field %s %s", e.Collection.DisplayName(), e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidRecord.
func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

func translateError(coll Collection, err error) error {
	if err == nil {
		return nil
	}

	var tl *codec.ErrTooLarge
	if errors.As(err, &tl) {
		return &RecordTooLargeError{Collection: coll, Size: tl.Size, Max: tl.Max, cause: err}
	}

	switch {
	case errors.Is(err, omap.ErrLayoutMismatch):
		return fmt.Errorf("%w: %w", ErrLayoutMismatch, err)
	case errors.Is(err, omap.ErrCorrupt),
		errors.Is(err, omap.ErrInvalidLayout),
		errors.Is(err, cell.ErrInvalidLayout),
		errors.Is(err, region.ErrCorrupt),
		errors.Is(err, region.ErrInvalidLayout),
		errors.Is(err, compress.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, memory.ErrExhausted):
		return fmt.Errorf("%w: %w", ErrExhausted, err)
	case errors.Is(err, memory.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
