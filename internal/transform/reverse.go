package transform

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/ticketbridge/internal/mapping"
)

// UpdateBody is the outbound ticket update built on the reverse path:
// top-level ticket fields plus the custom-field map.
type UpdateBody struct {
	Fields       map[string]any
	CustomFields map[string]any
}

// NewUpdateBody returns an empty update body.
func NewUpdateBody() *UpdateBody {
	return &UpdateBody{
		Fields:       make(map[string]any),
		CustomFields: make(map[string]any),
	}
}

// Set routes a value onto the custom-field map or the top-level body.
func (b *UpdateBody) Set(field string, custom bool, value any) {
	if custom {
		b.CustomFields[field] = value
	} else {
		b.Fields[field] = value
	}
}

// MarshalJSON flattens the top-level fields and nests custom_fields, the
// shape the helpdesk update endpoint expects.
func (b *UpdateBody) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Fields)+1)
	for k, v := range b.Fields {
		m[k] = v
	}
	m["custom_fields"] = b.CustomFields
	return json.Marshal(m)
}

// BuildReverse builds the ticket update body from a work item's field map.
// The correlation field is always set to the stringified work item id when a
// key is configured; reverse mappings then route each target field value
// onto the ticket. The result depends only on the inputs, so re-running an
// unchanged work item produces the same body.
func BuildReverse(workItemID int, fields map[string]Value, mappings []mapping.SingleField, correlationField string) *UpdateBody {
	body := NewUpdateBody()

	if correlationField != "" {
		body.CustomFields[correlationField] = strconv.Itoa(workItemID)
	}

	for _, m := range mappings {
		v := fields[m.TargetField] // zero Value is null

		var out any
		switch {
		case m.MultiValue && v.Kind() != KindNull:
			out = SplitMulti(v.AsString())
		case m.ValueType == mapping.ValueTypeDate && !v.IsZero():
			out = ConvertDate(v.AsString())
		case m.ValueType == mapping.ValueTypeText && !v.IsZero():
			out = v.AsString()
		default:
			out = v.Native()
		}

		body.Set(m.SourceField, m.Custom, out)
	}

	return body
}

// ConvertDate normalizes a work item date string to a UTC-midnight ISO-8601
// instant. Input without a "/" is treated as already normalized and passes
// through, which also makes the conversion idempotent. Slash-separated input
// is parsed as MM/DD/YYYY unconditionally — inherited behavior from the
// upstream configuration, not to be corrected without confirming the
// tracker's date locale. Malformed input passes through unchanged.
func ConvertDate(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	month, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	day, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return s
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}
