package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ResourceRef is a tagged optional reference to a bus, driver or conductor.
// A schedule can outlive the resource it was built around, so the reference
// is either Assigned(id) or Unassigned; callers must check Assigned before
// using ID. Stored as a nullable bigint column.
type ResourceRef struct {
	ID       int64
	Assigned bool
}

// Assigned builds a reference to the given resource id.
func Assigned(id int64) ResourceRef {
	return ResourceRef{ID: id, Assigned: true}
}

// Unassigned is the empty reference.
func Unassigned() ResourceRef {
	return ResourceRef{}
}

// Is reports whether the reference points at the given resource id.
func (r ResourceRef) Is(id int64) bool {
	return r.Assigned && r.ID == id
}

// Value implements driver.Valuer.
func (r ResourceRef) Value() (driver.Value, error) {
	if !r.Assigned {
		return nil, nil
	}
	return r.ID, nil
}

// Scan implements sql.Scanner.
func (r *ResourceRef) Scan(value any) error {
	if value == nil {
		*r = ResourceRef{}
		return nil
	}
	switch v := value.(type) {
	case int64:
		*r = Assigned(v)
	case int:
		*r = Assigned(int64(v))
	default:
		return fmt.Errorf("cannot scan %T into ResourceRef", value)
	}
	return nil
}

// MarshalJSON encodes an unassigned reference as null.
func (r ResourceRef) MarshalJSON() ([]byte, error) {
	if !r.Assigned {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts null or a resource id.
func (r *ResourceRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ResourceRef{}
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = Assigned(id)
	return nil
}
