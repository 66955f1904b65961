package linguastore

import (
	"strconv"
	"unicode/utf8"

	"github.com/hupe1980/linguastore/internal/omap"
)

type field struct {
	name  string
	value string
}

// checkUTF8 rejects fields that are not valid UTF-8; the record codec cannot
// decode them.
func checkUTF8(c Collection, fields ...field) error {
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return &InvalidRecordError{Collection: c, Field: f.name, Reason: "is not valid UTF-8"}
		}
	}
	return nil
}

func memberFields(members []string) []field {
	fields := make([]field, 0, len(members))
	for i, m := range members {
		fields = append(fields, field{name: "members[" + strconv.Itoa(i) + "]", value: m})
	}
	return fields
}

func get[V any](m *omap.Map[V], c Collection, id uint64) (V, error) {
	v, ok, err := m.Get(id)
	if err != nil {
		return v, translateError(c, err)
	}
	if !ok {
		return v, &NotFoundError{Collection: c, ID: id}
	}
	return v, nil
}

func put[V any](m *omap.Map[V], c Collection, id uint64, v V) error {
	_, _, err := m.Insert(id, v)
	return translateError(c, err)
}

func remove[V any](m *omap.Map[V], c Collection, id uint64) (V, error) {
	v, ok, err := m.Remove(id)
	if err != nil {
		return v, translateError(c, err)
	}
	if !ok {
		return v, &NotFoundError{Collection: c, ID: id}
	}
	return v, nil
}
