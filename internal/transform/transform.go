package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/ticketbridge/internal/mapping"
)

// ErrNoProductMatch signals that the ticket's product name and version match
// no catalog entry. Non-fatal: the product fragment is suppressed for that
// ticket and a warning is reported.
var ErrNoProductMatch = errors.New("no product catalog match")

// Assignment is one outbound (target field, value) pair. The target adapter
// turns assignments into its wire format.
type Assignment struct {
	Field string
	Value any
}

// TicketFields is the view of a source ticket the transformer reads: a
// well-known field or an entry of the extensible custom-field map.
type TicketFields interface {
	Field(key string) Value
	CustomField(key string) Value
}

// repoBlockHeader prefixes the aggregated long-form description.
const repoBlockHeader = "<b>Reproduction Steps:</b><br/>"

// JoinMulti renders a multi-value field as a single string. An empty list
// yields the empty string, never null.
func JoinMulti(items []string) string {
	return strings.Join(items, ", ")
}

// SplitMulti is the reverse of JoinMulti: split on "," and trim each token.
func SplitMulti(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func sourceValue(t TicketFields, field string, custom bool) Value {
	if custom {
		return t.CustomField(field)
	}
	return t.Field(field)
}

// BuildForward emits exactly one assignment per mapping, in mapping order.
// Missing source values become the empty string so a stale target field is
// cleared rather than left behind.
func BuildForward(t TicketFields, mappings []mapping.SingleField) []Assignment {
	out := make([]Assignment, 0, len(mappings))
	for _, m := range mappings {
		v := sourceValue(t, m.SourceField, m.Custom)
		var value any
		if m.MultiValue && v.Kind() == KindList {
			value = JoinMulti(v.AsList())
		} else {
			value = v.Native()
		}
		out = append(out, Assignment{Field: m.TargetField, Value: value})
	}
	return out
}

// BuildRepoBlock concatenates every repo mapping into one labeled HTML block
// assigned to targetField. Always a single aggregate assignment, never
// per-field.
func BuildRepoBlock(t TicketFields, mappings []mapping.RepoField, targetField string) Assignment {
	var b strings.Builder
	b.WriteString(repoBlockHeader)
	for _, m := range mappings {
		v := sourceValue(t, m.SourceField, m.Custom)
		var s string
		if m.MultiValue && v.Kind() == KindList {
			s = JoinMulti(v.AsList())
		} else {
			s = v.AsString()
		}
		fmt.Fprintf(&b, "<b>%s:</b><br/> %s<br/><br/>", m.Title, s)
	}
	return Assignment{Field: targetField, Value: b.String()}
}

// BuildProductBlock looks up the catalog entry for the ticket's product name
// and version and emits one assignment per product-field mapping whose
// attribute is non-empty. Unlike BuildForward, empty attributes are omitted.
// Returns ErrNoProductMatch when no catalog entry matches.
func BuildProductBlock(set *mapping.Set, name, version string) ([]Assignment, error) {
	entry, ok := set.ProductLookup(name, version)
	if !ok {
		return nil, fmt.Errorf("product %q version %q: %w", name, version, ErrNoProductMatch)
	}

	var out []Assignment
	for _, m := range set.ProductFields() {
		v, ok := entry.Attribute(m.CatalogKey)
		if !ok {
			// Unknown catalog key is a configuration slip, not a per-ticket
			// fault. NewSet rejects it at load; skip if one slips through.
			continue
		}
		if v == "" {
			continue
		}
		out = append(out, Assignment{Field: m.TargetField, Value: v})
	}
	return out, nil
}

// RequesterAssignment maps the ticket requester's email onto fieldKey.
// Emitted only when the email is present.
func RequesterAssignment(email, fieldKey string) (Assignment, bool) {
	if email == "" {
		return Assignment{}, false
	}
	return Assignment{Field: fieldKey, Value: email}, true
}

// ResponderAssignment maps the responding agent's name onto fieldKey.
// Emitted only when the agent has a first name.
func ResponderAssignment(firstName, lastName, fieldKey string) (Assignment, bool) {
	if firstName == "" {
		return Assignment{}, false
	}
	name := firstName
	if lastName != "" {
		name += " " + lastName
	}
	return Assignment{Field: fieldKey, Value: name}, true
}
