package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ticketbridge/internal/azuredevops"
	tberrors "github.com/randalmurphal/ticketbridge/internal/errors"
	"github.com/randalmurphal/ticketbridge/internal/freshservice"
	"github.com/randalmurphal/ticketbridge/internal/transform"
)

func linkedTicket(id int64, workItem string) *freshservice.Ticket {
	return &freshservice.Ticket{
		ID: id,
		CustomFields: map[string]transform.Value{
			"source_control_reference": transform.String(workItem),
		},
	}
}

func TestRunner_PagesUntilExhausted(t *testing.T) {
	source := newFakeSource()
	target := newFakeTarget()
	reporter := &fakeReporter{}

	// Two full pages, then the source is exhausted.
	source.pages = [][]*freshservice.Ticket{
		{linkedTicket(1, "x"), linkedTicket(2, "x"), linkedTicket(3, "x"), linkedTicket(4, "x"), linkedTicket(5, "x")},
		{linkedTicket(6, "x"), linkedTicket(7, "x")},
	}

	eng := newTestEngine(t, source, target, reporter)
	runner := NewRunner(eng, source, 5, 5, nil)

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 7, stats.Processed())
	// "x" is not a work item id, so every ticket lands in Skipped.
	assert.Equal(t, 7, stats.Skipped)
	// Two data pages plus the empty terminator.
	assert.Equal(t, 3, source.pageCalls)
}

func TestRunner_MixedOutcomes(t *testing.T) {
	source := newFakeSource()
	target := newFakeTarget()
	reporter := &fakeReporter{}

	target.items[812] = &azuredevops.WorkItem{ID: 812, Fields: map[string]transform.Value{}}

	source.details[10] = detailTicket(10)
	source.agents[7] = &freshservice.Agent{ID: 7, FirstName: "Ada"}

	source.pages = [][]*freshservice.Ticket{
		{
			&freshservice.Ticket{ID: 10}, // unlinked → create
			linkedTicket(11, "812"),      // linked → refresh
			linkedTicket(12, "nope"),     // bad correlation → skip
			linkedTicket(13, "999"),      // missing work item → fail
		},
	}

	eng := newTestEngine(t, source, target, reporter)
	runner := NewRunner(eng, source, 5, 2, nil)

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
}

func TestRunner_PageFetchErrorAbortsRun(t *testing.T) {
	source := newFakeSource()
	source.pageErr = errors.New("429 too many requests")

	eng := newTestEngine(t, source, newFakeTarget(), &fakeReporter{})
	runner := NewRunner(eng, source, 5, 5, nil)

	stats, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, stats.Pages)

	var serr *tberrors.SyncError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, tberrors.CodePageFetch, serr.Code)
}

func TestRunner_TicketFailureDoesNotAbortPage(t *testing.T) {
	source := newFakeSource()
	target := newFakeTarget()
	reporter := &fakeReporter{}

	target.items[812] = &azuredevops.WorkItem{ID: 812, Fields: map[string]transform.Value{}}

	source.pages = [][]*freshservice.Ticket{
		{
			linkedTicket(1, "999"), // fails: work item missing
			linkedTicket(2, "812"),
			linkedTicket(3, "812"),
		},
	}

	eng := newTestEngine(t, source, target, reporter)
	runner := NewRunner(eng, source, 5, 1, nil)

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Updated)
}

func TestNewRunner_Defaults(t *testing.T) {
	eng := newTestEngine(t, newFakeSource(), newFakeTarget(), &fakeReporter{})

	r := NewRunner(eng, newFakeSource(), 0, 0, nil)
	assert.Equal(t, defaultPageSize, r.pageSize)
	assert.Equal(t, defaultConcurrency, r.concurrency)

	// Concurrency never exceeds the page size.
	r = NewRunner(eng, newFakeSource(), 3, 10, nil)
	assert.Equal(t, 3, r.concurrency)
}
