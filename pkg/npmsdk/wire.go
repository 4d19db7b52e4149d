package npmsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// The proxy manager has served the same fields with different JSON types
// across releases (ids and ports as numbers or strings, booleans as 0/1,
// timestamps with or without a "T"). The flex* types absorb those variations
// so the public model only ever sees plain Go types.

var jsonNull = []byte("null")

// flexInt decodes a JSON number or a numeric string. null and "" decode to 0.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*f = 0
		return nil
	}

	s := string(data)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some releases render integral values as floats
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("npmsdk: cannot decode %s as integer", string(data))
		}
		n = int64(fl)
	}

	*f = flexInt(n)
	return nil
}

// flexBool decodes true/false, 0/1 and their quoted forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	s := strings.Trim(string(data), `"`)

	switch strings.ToLower(s) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("npmsdk: cannot decode %s as boolean", string(data))
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

// flexTime decodes the timestamp formats the server emits. null and "" decode
// to the zero time. Anything else it cannot parse also decodes to the zero
// time, with the raw value kept so callers can report it; one odd timestamp
// must not fail a whole listing.
type flexTime struct {
	t   time.Time
	raw string
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	*f = flexTime{}

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		f.raw = string(data)
		return nil
	}

	t, err := parseTimestamp(s)
	if err != nil {
		f.raw = s
		return nil
	}

	f.t = t
	return nil
}

func (f flexTime) Time() time.Time { return f.t }

// Unparsed returns the raw value when it was present but not understood.
func (f flexTime) Unparsed() (string, bool) {
	return f.raw, f.raw != ""
}

// unparsedTimes returns slog attributes naming every field of fields whose
// value was not understood.
func unparsedTimes(fields map[string]flexTime) []any {
	var attrs []any
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if raw, ok := fields[name].Unparsed(); ok {
			attrs = append(attrs, name, raw)
		}
	}
	return attrs
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("npmsdk: unrecognised timestamp %q", s)
}

// certificateRef decodes certificate_id. Absent, null, 0, "0", "" and "new"
// all mean "no certificate" and leave ID nil.
type certificateRef struct {
	ID *int64
}

func (c *certificateRef) UnmarshalJSON(data []byte) error {
	c.ID = nil

	trimmed := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if trimmed == "new" {
		return nil
	}

	var n flexInt
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}

	if n != 0 {
		id := int64(n)
		c.ID = &id
	}
	return nil
}
