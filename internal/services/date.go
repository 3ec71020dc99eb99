package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// dateLayouts are tried in order when decoding a Date.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// Date is a request timestamp. It accepts RFC 3339 as well as a bare
// calendar date such as "2006-11-14", which is read as midnight UTC.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// UnmarshalJSON decodes a JSON string in any of the accepted layouts. A JSON
// null leaves the value unchanged.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return invalidDate(string(b))
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return invalidDate(s)
}

func invalidDate(value string) error {
	return &ValidationError{
		Tag:     "date",
		Message: fmt.Sprintf("%q is not a valid date, use YYYY-MM-DD or RFC 3339", value),
	}
}

// timePtr returns nil for a nil Date.
func (d *Date) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time.UTC()
	return &t
}

// dateValue lets the validator see a Date as the time.Time it wraps, so
// "required" rejects the zero time.
func dateValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(Date); ok {
		return d.Time
	}
	return nil
}
