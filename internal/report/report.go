// Package report accumulates structured run events and renders them into
// the emailed run report. Events arrive from concurrent ticket tasks; every
// append is serialized behind one mutex.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/ticketbridge/internal/azuredevops"
	"github.com/randalmurphal/ticketbridge/internal/freshservice"
	"github.com/randalmurphal/ticketbridge/internal/transform"
)

// Level classifies a report entry.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARN"
	LevelError   Level = "ERROR"
)

// Entry is one report row.
type Entry struct {
	Timestamp  time.Time
	Level      Level
	Operation  string
	Message    string
	TicketID   string
	WorkItemID string
	Direction  string
	Context    string
}

// Summary are the per-run event counts.
type Summary struct {
	InfoCount    int
	WarningCount int
	ErrorCount   int
}

// Manager is the run reporter. One instance per run; safe for concurrent
// use.
type Manager struct {
	mu      sync.Mutex
	runID   string
	start   time.Time
	end     time.Time
	entries []Entry

	logger *slog.Logger
}

// NewManager creates a reporter for one run.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runID:  uuid.NewString(),
		logger: logger,
	}
}

// RunID returns the run identifier attached to logs and report rows.
func (m *Manager) RunID() string {
	return m.runID
}

// Start marks the run start time.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = time.Now().UTC()
}

// Finish marks the run end time.
func (m *Manager) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.end = time.Now().UTC()
}

// StartTime returns the run start time.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start
}

// EndTime returns the run end time.
func (m *Manager) EndTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.end
}

func (m *Manager) append(e Entry) {
	e.Timestamp = time.Now().UTC()
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
}

func contextString(context any) string {
	if context == nil {
		return ""
	}
	if s, ok := context.(string); ok {
		return s
	}
	data, err := json.Marshal(context)
	if err != nil {
		return fmt.Sprintf("%v", context)
	}
	return string(data)
}

// Info records an informational event.
func (m *Manager) Info(operation, message string, context any) {
	m.append(Entry{Level: LevelInfo, Operation: operation, Message: message, Context: contextString(context)})
	m.logger.Info("report: "+message, "run_id", m.runID, "operation", operation)
}

// Warn records a warning event.
func (m *Manager) Warn(operation, message string, context any) {
	m.append(Entry{Level: LevelWarning, Operation: operation, Message: message, Context: contextString(context)})
	m.logger.Warn("report: "+message, "run_id", m.runID, "operation", operation)
}

// Error records an error event.
func (m *Manager) Error(operation, message string, context any) {
	m.append(Entry{Level: LevelError, Operation: operation, Message: message, Context: contextString(context)})
	m.logger.Error("report: "+message, "run_id", m.runID, "operation", operation)
}

// RecordCreated records a successful work item creation, summarizing the
// patch as field→value pairs.
func (m *Manager) RecordCreated(ticket *freshservice.Ticket, item *azuredevops.WorkItem, patch []azuredevops.PatchOperation) {
	summary := make(map[string]any, len(patch))
	for _, op := range patch {
		summary[op.Path] = op.Value
	}
	m.append(Entry{
		Level:      LevelInfo,
		Operation:  "CREATE_WORK_ITEM",
		Message:    fmt.Sprintf("created work item %d for ticket %d", item.ID, ticket.ID),
		TicketID:   strconv.FormatInt(ticket.ID, 10),
		WorkItemID: strconv.Itoa(item.ID),
		Direction:  "FS_TO_ADO",
		Context:    contextString(summary),
	})
	m.logger.Info("report: created work item", "run_id", m.runID, "ticket_id", ticket.ID, "work_item_id", item.ID)
}

// RecordUpdated records a ticket refresh from its linked work item,
// summarizing the update body.
func (m *Manager) RecordUpdated(ticket *freshservice.Ticket, item *azuredevops.WorkItem, body *transform.UpdateBody) {
	summary := make(map[string]any, len(body.Fields)+len(body.CustomFields))
	for k, v := range body.Fields {
		summary[k] = v
	}
	for k, v := range body.CustomFields {
		summary["custom_fields."+k] = v
	}
	m.append(Entry{
		Level:      LevelInfo,
		Operation:  "UPDATE_TICKET_FROM_WORK_ITEM",
		Message:    fmt.Sprintf("updated ticket %d from work item %d", ticket.ID, item.ID),
		TicketID:   strconv.FormatInt(ticket.ID, 10),
		WorkItemID: strconv.Itoa(item.ID),
		Direction:  "ADO_TO_FS",
		Context:    contextString(summary),
	})
	m.logger.Info("report: updated ticket", "run_id", m.runID, "ticket_id", ticket.ID, "work_item_id", item.ID)
}

// Summary returns the event counts.
func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Summary
	for _, e := range m.entries {
		switch e.Level {
		case LevelInfo:
			s.InfoCount++
		case LevelWarning:
			s.WarningCount++
		case LevelError:
			s.ErrorCount++
		}
	}
	return s
}

// Entries returns a copy of the accumulated entries in append order.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
