package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ISODate is a wall-clock calendar date in "YYYY-MM-DD" form, with no time
// zone attached. Lexicographic order on the string form matches chronological
// order, which the conflict queries rely on.
type ISODate string

const isoDateLayout = "2006-01-02"

// ParseISODate validates s as a calendar date.
func ParseISODate(s string) (ISODate, error) {
	if _, err := time.Parse(isoDateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return ISODate(s), nil
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) ISODate {
	return ISODate(t.Format(isoDateLayout))
}

// Time returns the date as a time.Time at midnight UTC.
func (d ISODate) Time() (time.Time, error) {
	return time.Parse(isoDateLayout, string(d))
}

func (d ISODate) String() string { return string(d) }

// Before reports whether d is strictly earlier than other.
func (d ISODate) Before(other ISODate) bool { return string(d) < string(other) }

// Value implements driver.Valuer.
func (d ISODate) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

// Scan implements sql.Scanner. Postgres date columns scan as time.Time,
// sqlite hands back strings or bytes.
func (d *ISODate) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateOf(v)
	case string:
		*d = ISODate(v)
		if len(v) > len(isoDateLayout) {
			*d = ISODate(v[:len(isoDateLayout)])
		}
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ISODate", value)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d ISODate) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// UnmarshalJSON implements json.Unmarshaler and validates the format.
func (d *ISODate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseISODate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
