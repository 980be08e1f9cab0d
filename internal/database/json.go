package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JsonColumn is a wrapper for use in store models which allows
// arbitrary data to be marshalled in/out of a JSONB column without
// each store hand-rolling the scanning logic.
type JsonColumn[T any] struct {
	val *T
}

func NewJsonColumn[T any](val *T) JsonColumn[T] {
	return JsonColumn[T]{val: val}
}

func (j *JsonColumn[T]) Scan(src any) error {
	if src == nil {
		j.val = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("incompatible type %T for JsonColumn", src)
	}

	val := new(T)
	if err := json.Unmarshal(source, val); err != nil {
		return err
	}

	j.val = val
	return nil
}

func (j JsonColumn[T]) Value() (driver.Value, error) {
	if j.val == nil {
		return nil, nil
	}

	return json.Marshal(j.val)
}

// Get returns the unmarshalled value of the column, which will be
// nil if the column was NULL (or was never scanned).
func (j *JsonColumn[T]) Get() *T { return j.val }
