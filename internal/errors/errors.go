// Package errors provides structured error types for ticketbridge.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for ticketbridge.
const (
	// Configuration errors - fatal to the run, surfaced before any ticket
	// processing begins.
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"

	// Remote adapter errors - ticket-scoped, non-fatal to the batch.
	CodeRemoteFailed   Code = "REMOTE_FAILED"
	CodeCreateNoID     Code = "CREATE_RETURNED_NO_ID"
	CodePageFetch      Code = "PAGE_FETCH_FAILED"
	CodeAttachment     Code = "ATTACHMENT_FAILED"
	CodeNoProductMatch Code = "NO_PRODUCT_MATCH"
)

// Severity groups error codes by their effect on a run.
type Severity int

const (
	SeverityUnknown Severity = iota
	// SeverityRun aborts the whole run.
	SeverityRun
	// SeverityTicket fails a single ticket only.
	SeverityTicket
	// SeverityWarning is logged and suppresses one payload fragment.
	SeverityWarning
)

// codeSeverities maps error codes to their run effect.
var codeSeverities = map[Code]Severity{
	CodeConfigInvalid:  SeverityRun,
	CodeConfigMissing:  SeverityRun,
	CodePageFetch:      SeverityRun,
	CodeRemoteFailed:   SeverityTicket,
	CodeCreateNoID:     SeverityTicket,
	CodeAttachment:     SeverityWarning,
	CodeNoProductMatch: SeverityWarning,
}

// SyncError is the structured error type for ticketbridge.
type SyncError struct {
	Code       Code   `json:"code"`
	What       string `json:"what"`
	TicketID   string `json:"ticket_id,omitempty"`
	WorkItemID string `json:"work_item_id,omitempty"`
	Cause      error  `json:"-"`
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.TicketID != "" {
		fmt.Fprintf(&b, " (ticket %s)", e.TicketID)
	}
	if e.WorkItemID != "" {
		fmt.Fprintf(&b, " (work item %s)", e.WorkItemID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Severity returns the error's effect on the run.
func (e *SyncError) Severity() Severity {
	if s, ok := codeSeverities[e.Code]; ok {
		return s
	}
	return SeverityUnknown
}

// MarshalJSON implements json.Marshaler.
func (e *SyncError) MarshalJSON() ([]byte, error) {
	type alias SyncError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a SyncError with the same code.
func (e *SyncError) Is(target error) bool {
	t, ok := target.(*SyncError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New builds a SyncError with a code and message.
func New(code Code, what string) *SyncError {
	return &SyncError{Code: code, What: what}
}

// Wrap builds a SyncError around a cause.
func Wrap(code Code, what string, cause error) *SyncError {
	return &SyncError{Code: code, What: what, Cause: cause}
}

// RemoteError reports a failed call to one of the two remote systems,
// carrying the HTTP status and response body when available.
type RemoteError struct {
	System     string // "freshservice" or "azuredevops"
	Op         string // e.g. "create work item"
	StatusCode int    // 0 when the request never completed
	Body       string // truncated response body
	Cause      error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s failed", e.System, e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RemoteError) Unwrap() error {
	return e.Cause
}
