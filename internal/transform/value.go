// Package transform builds outbound field assignments from mapping records
// and ticket/work item data. All functions are pure with respect to their
// inputs; the only shared state is the read-only mapping set.
package transform

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type of a ticket or work item field value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindList
	KindNumber
)

// Value is a closed variant over the field value types the two remote
// systems actually produce: string, string list, number, or null. Modeling
// this explicitly keeps the type-dependent transformer branches (multi-select
// join/split, date conversion) exhaustive.
type Value struct {
	kind Kind
	str  string
	list []string
	num  float64
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List returns a string-list value.
func List(items []string) Value { return Value{kind: KindList, list: items} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is null or an empty string. Used for the
// "absent/empty correlation field" check and for product attribute filtering.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	default:
		return false
	}
}

// AsString renders the value the way the original helpdesk payloads do:
// null becomes "", numbers drop a trailing ".0", lists join on ",".
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// AsList returns the underlying list, or nil for non-list values.
func (v Value) AsList() []string {
	if v.kind != KindList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// Native returns the value as the type it should carry on the wire: lists
// stay lists, numbers stay numbers, strings stay strings. Null becomes the
// empty string so a payload never carries an explicit null.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindList:
		return append([]string(nil), v.list...)
	default:
		return ""
	}
}

// UnmarshalJSON maps arbitrary JSON field values onto the closed variant.
// Booleans and objects have no slot of their own: booleans become their
// string form, objects keep their raw JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Null()
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var item Value
			if err := item.UnmarshalJSON(r); err != nil {
				return err
			}
			items = append(items, item.AsString())
		}
		*v = List(items)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = String(strconv.FormatBool(b))
	case '{':
		*v = String(trimmed)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

// MarshalJSON encodes the native form of the value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}
