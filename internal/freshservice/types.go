// Package freshservice implements the source ticket adapter: a thin
// basic-auth client for the helpdesk REST API plus the typed ticket view the
// sync core reads.
package freshservice

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/randalmurphal/ticketbridge/internal/transform"
)

// Ticket is a helpdesk ticket. Well-known fields are typed; everything else
// stays addressable by key through Field, which reads the raw ticket JSON.
// The paged list view omits fields the detail view carries, so the create
// path always re-fetches the full ticket before building payloads.
type Ticket struct {
	ID           int64                      `json:"id"`
	Subject      string                     `json:"subject"`
	ResponderID  int64                      `json:"responder_id"`
	Requester    *Requester                 `json:"requester"`
	CustomFields map[string]transform.Value `json:"custom_fields"`
	Attachments  []Attachment               `json:"attachments"`

	raw []byte
}

// Requester is the ticket's reporting contact.
type Requester struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Attachment is one file attached to a ticket.
type Attachment struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"attachment_url"`
	ContentType string `json:"content_type"`
}

// Agent is a helpdesk agent (the ticket responder).
type Agent struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	JobTitle  string `json:"job_title"`
}

// UnmarshalJSON decodes the typed fields and retains the raw document for
// key-addressed access.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	type alias Ticket
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Ticket(a)
	t.raw = append([]byte(nil), data...)
	return nil
}

// Field returns a top-level ticket field by key. Mapping records address
// source fields by name, so this is deliberately dynamic.
func (t *Ticket) Field(key string) transform.Value {
	if len(t.raw) == 0 {
		return transform.Null()
	}
	return valueFromJSON(gjson.GetBytes(t.raw, key))
}

// CustomField returns an entry of the extensible custom-field map. Missing
// keys are null.
func (t *Ticket) CustomField(key string) transform.Value {
	return t.CustomFields[key]
}

// valueFromJSON maps a gjson result onto the closed value variant.
func valueFromJSON(res gjson.Result) transform.Value {
	switch res.Type {
	case gjson.String:
		return transform.String(res.Str)
	case gjson.Number:
		return transform.Number(res.Num)
	case gjson.True:
		return transform.String("true")
	case gjson.False:
		return transform.String("false")
	case gjson.JSON:
		if res.IsArray() {
			var items []string
			for _, el := range res.Array() {
				items = append(items, el.String())
			}
			return transform.List(items)
		}
		return transform.String(res.Raw)
	default:
		return transform.Null()
	}
}
