package comments

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID is an opaque server-assigned identifier. Backends disagree on whether
// ids travel as JSON strings or numbers, so FlexID accepts either and keeps a
// canonical string form.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

func (id FlexID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// Equal compares two identifiers, tolerating string/numeric mismatches
// ("7" vs 7 vs "07" all refer to the same entity when both sides are numeric).
func (id FlexID) Equal(other FlexID) bool {
	a := strings.TrimSpace(string(id))
	b := strings.TrimSpace(string(other))
	if a == b {
		return a != ""
	}
	an, aErr := strconv.ParseInt(a, 10, 64)
	bn, bErr := strconv.ParseInt(b, 10, 64)
	return aErr == nil && bErr == nil && an == bn
}
