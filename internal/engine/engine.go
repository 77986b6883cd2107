// Package engine implements the per-ticket reconciliation state machine and
// the paged batch runner. Per ticket the machine runs Unlinked → Creating →
// Linked, or straight to the refresh path when the correlation field is
// already populated; any step failure terminates that ticket only.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/randalmurphal/ticketbridge/internal/azuredevops"
	tberrors "github.com/randalmurphal/ticketbridge/internal/errors"
	"github.com/randalmurphal/ticketbridge/internal/freshservice"
	"github.com/randalmurphal/ticketbridge/internal/mapping"
	"github.com/randalmurphal/ticketbridge/internal/transform"
)

// TicketSource is the helpdesk adapter the engine pulls from.
type TicketSource interface {
	FetchPage(ctx context.Context, page, perPage int) ([]*freshservice.Ticket, error)
	FetchDetail(ctx context.Context, id int64) (*freshservice.Ticket, error)
	FetchAgent(ctx context.Context, id int64) (*freshservice.Agent, error)
	UpdateTicket(ctx context.Context, id int64, body *transform.UpdateBody) error
	FetchAttachment(ctx context.Context, url string) ([]byte, error)
}

// WorkItemTarget is the tracker adapter the engine pushes to.
type WorkItemTarget interface {
	CreateWorkItem(ctx context.Context, patch []azuredevops.PatchOperation) (*azuredevops.WorkItem, error)
	GetWorkItem(ctx context.Context, id int) (*azuredevops.WorkItem, error)
	UpdateWorkItem(ctx context.Context, id int, patch []azuredevops.PatchOperation) (*azuredevops.WorkItem, error)
	UploadAttachment(ctx context.Context, name, contentType string, data []byte) (*azuredevops.AttachmentRef, error)
	LinkAttachment(ctx context.Context, workItemID int, url, comment string) error
}

// Reporter receives the structured events the engine emits.
type Reporter interface {
	RecordCreated(ticket *freshservice.Ticket, item *azuredevops.WorkItem, patch []azuredevops.PatchOperation)
	RecordUpdated(ticket *freshservice.Ticket, item *azuredevops.WorkItem, body *transform.UpdateBody)
	Warn(operation, message string, context any)
	Error(operation, message string, context any)
}

// Options are the field key knobs of the payload builders.
type Options struct {
	// RepoFieldKey receives the aggregated long-form description block.
	RepoFieldKey string
	// RequesterFieldKey receives the requester's email.
	RequesterFieldKey string
	// ResponderFieldKey receives the responding agent's name.
	ResponderFieldKey string
	// CorrelationFieldKey is the ticket custom field holding the linked
	// work item id.
	CorrelationFieldKey string
	// ProductNameKey and ProductVersionKey are the ticket custom fields the
	// product catalog is keyed on.
	ProductNameKey    string
	ProductVersionKey string
}

func (o *Options) applyDefaults() {
	if o.RepoFieldKey == "" {
		o.RepoFieldKey = "System.Description"
	}
	if o.RequesterFieldKey == "" {
		o.RequesterFieldKey = "Custom.ReqID"
	}
	if o.ResponderFieldKey == "" {
		o.ResponderFieldKey = "Custom.Technician"
	}
	if o.CorrelationFieldKey == "" {
		o.CorrelationFieldKey = "source_control_reference"
	}
	if o.ProductNameKey == "" {
		o.ProductNameKey = "product_name"
	}
	if o.ProductVersionKey == "" {
		o.ProductVersionKey = "product_version"
	}
}

// Engine reconciles one ticket at a time against the tracker. Explicitly
// constructed with its collaborators so both remote adapters take test
// doubles.
type Engine struct {
	source   TicketSource
	target   WorkItemTarget
	mappings *mapping.Set
	reporter Reporter
	opts     Options
	logger   *slog.Logger
}

// New creates an Engine.
func New(source TicketSource, target WorkItemTarget, mappings *mapping.Set, reporter Reporter, opts Options, logger *slog.Logger) *Engine {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:   source,
		target:   target,
		mappings: mappings,
		reporter: reporter,
		opts:     opts,
		logger:   logger,
	}
}

// ProcessTicket runs one ticket through the state machine and returns its
// terminal outcome. Never returns an error: failures are contained here and
// reported, so one ticket can never abort the batch.
func (e *Engine) ProcessTicket(ctx context.Context, ticket *freshservice.Ticket) Outcome {
	link := ticket.CustomField(e.opts.CorrelationFieldKey)
	if link.IsZero() {
		return e.createPath(ctx, ticket)
	}
	return e.refreshPath(ctx, ticket, link.AsString())
}

// createPath is the Unlinked → Creating → Linked transition: build the full
// create patch, create the work item, attach files, then write the
// correlation (and other reverse-mapped fields) back onto the ticket.
func (e *Engine) createPath(ctx context.Context, stub *freshservice.Ticket) Outcome {
	e.logger.Info("creating work item for ticket", "ticket_id", stub.ID)

	// The paged view omits fields the detail view carries.
	ticket, err := e.source.FetchDetail(ctx, stub.ID)
	if err != nil {
		return e.fail(stub, 0, "fetch ticket detail", err)
	}

	assignments := transform.BuildForward(ticket, e.mappings.FieldsFor(mapping.SourceToTarget))

	if ticket.Requester != nil {
		if a, ok := transform.RequesterAssignment(ticket.Requester.Email, e.opts.RequesterFieldKey); ok {
			assignments = append(assignments, a)
		}
	}

	if ticket.ResponderID != 0 {
		agent, err := e.source.FetchAgent(ctx, ticket.ResponderID)
		if err != nil {
			return e.fail(ticket, 0, "fetch agent", err)
		}
		if a, ok := transform.ResponderAssignment(agent.FirstName, agent.LastName, e.opts.ResponderFieldKey); ok {
			assignments = append(assignments, a)
		}
	}

	assignments = append(assignments, transform.BuildRepoBlock(ticket, e.mappings.RepoFields(), e.opts.RepoFieldKey))

	name := ticket.CustomField(e.opts.ProductNameKey).AsString()
	version := ticket.CustomField(e.opts.ProductVersionKey).AsString()
	productAssignments, err := transform.BuildProductBlock(e.mappings, name, version)
	switch {
	case errors.Is(err, transform.ErrNoProductMatch):
		// Non-fatal: suppresses the product fragment for this ticket only.
		e.logger.Warn("no product catalog match", "ticket_id", ticket.ID, "product", name, "version", version)
		e.reporter.Warn("BUILD_PRODUCT_FIELDS", err.Error(), map[string]any{"ticket_id": ticket.ID})
	case err != nil:
		return e.fail(ticket, 0, "build product fields", err)
	default:
		assignments = append(assignments, productAssignments...)
	}

	patch := azuredevops.FieldOps(assignments)

	item, err := e.target.CreateWorkItem(ctx, patch)
	if err != nil {
		return e.fail(ticket, 0, "create work item", err)
	}
	if item == nil || item.ID == 0 {
		return e.fail(ticket, 0, "create work item",
			tberrors.New(tberrors.CodeCreateNoID, "create returned no id"))
	}

	e.reporter.RecordCreated(ticket, item, patch)
	e.logger.Info("created work item", "ticket_id", ticket.ID, "work_item_id", item.ID)

	if len(ticket.Attachments) > 0 {
		e.copyAttachments(ctx, ticket, item)
	}

	if err := e.applyReverse(ctx, ticket, item); err != nil {
		return e.fail(ticket, item.ID, "write correlation to ticket", err)
	}

	return Outcome{Kind: OutcomeCreated, TicketID: ticket.ID, WorkItemID: item.ID}
}

// refreshPath keeps an already-linked ticket consistent with its work item.
// Runs on every cycle for linked tickets.
func (e *Engine) refreshPath(ctx context.Context, ticket *freshservice.Ticket, link string) Outcome {
	workItemID, err := strconv.Atoi(link)
	if err != nil {
		e.logger.Warn("correlation field is not a work item id", "ticket_id", ticket.ID, "value", link)
		return Outcome{
			Kind:     OutcomeSkipped,
			TicketID: ticket.ID,
			Reason:   fmt.Sprintf("correlation field %q is not a work item id", link),
		}
	}

	item, err := e.target.GetWorkItem(ctx, workItemID)
	if err != nil {
		return e.fail(ticket, workItemID, "get work item", err)
	}

	if err := e.applyReverse(ctx, ticket, item); err != nil {
		return e.fail(ticket, workItemID, "update ticket from work item", err)
	}

	return Outcome{Kind: OutcomeUpdated, TicketID: ticket.ID, WorkItemID: item.ID}
}

// applyReverse builds the reverse update body from the work item and applies
// it to the ticket. Also used by the create path for the correlation
// write-back.
func (e *Engine) applyReverse(ctx context.Context, ticket *freshservice.Ticket, item *azuredevops.WorkItem) error {
	body := transform.BuildReverse(item.ID, item.Fields,
		e.mappings.FieldsFor(mapping.TargetToSource), e.opts.CorrelationFieldKey)

	if err := e.source.UpdateTicket(ctx, ticket.ID, body); err != nil {
		return err
	}

	e.reporter.RecordUpdated(ticket, item, body)
	e.logger.Info("updated ticket from work item", "ticket_id", ticket.ID, "work_item_id", item.ID)
	return nil
}

// copyAttachments moves the ticket's attachments onto the new work item,
// sequentially and in order. One attachment failing is reported and skipped;
// it never rolls back the work item or aborts the rest.
func (e *Engine) copyAttachments(ctx context.Context, ticket *freshservice.Ticket, item *azuredevops.WorkItem) {
	for _, att := range ticket.Attachments {
		if err := e.copyAttachment(ctx, ticket, item, att); err != nil {
			e.logger.Error("attachment copy failed",
				"ticket_id", ticket.ID, "work_item_id", item.ID, "attachment", att.Name, "error", err)
			e.reporter.Error("COPY_ATTACHMENT",
				fmt.Sprintf("attachment %s for ticket %d: %s", att.Name, ticket.ID, err),
				map[string]any{"ticket_id": ticket.ID, "work_item_id": item.ID})
		}
	}
}

func (e *Engine) copyAttachment(ctx context.Context, ticket *freshservice.Ticket, item *azuredevops.WorkItem, att freshservice.Attachment) error {
	data, err := e.source.FetchAttachment(ctx, att.URL)
	if err != nil {
		return tberrors.Wrap(tberrors.CodeAttachment, "download attachment", err)
	}

	ref, err := e.target.UploadAttachment(ctx, att.Name, att.ContentType, data)
	if err != nil {
		return tberrors.Wrap(tberrors.CodeAttachment, "upload attachment", err)
	}

	comment := fmt.Sprintf("Attached from helpdesk ticket %d", ticket.ID)
	if err := e.target.LinkAttachment(ctx, item.ID, ref.URL, comment); err != nil {
		return tberrors.Wrap(tberrors.CodeAttachment, "link attachment", err)
	}

	e.logger.Info("copied attachment", "ticket_id", ticket.ID, "work_item_id", item.ID, "attachment", att.Name)
	return nil
}

// fail logs and reports a ticket-scoped error and returns the Failed
// outcome.
func (e *Engine) fail(ticket *freshservice.Ticket, workItemID int, op string, err error) Outcome {
	serr := &tberrors.SyncError{
		Code:     tberrors.CodeRemoteFailed,
		What:     op + " failed",
		TicketID: strconv.FormatInt(ticket.ID, 10),
		Cause:    err,
	}
	if workItemID != 0 {
		serr.WorkItemID = strconv.Itoa(workItemID)
	}

	e.logger.Error("ticket processing failed", "ticket_id", ticket.ID, "operation", op, "error", err)
	e.reporter.Error(op, serr.Error(), map[string]any{"ticket_id": ticket.ID, "work_item_id": workItemID})

	return Outcome{Kind: OutcomeFailed, TicketID: ticket.ID, WorkItemID: workItemID, Err: serr}
}
