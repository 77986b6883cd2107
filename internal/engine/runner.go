package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	tberrors "github.com/randalmurphal/ticketbridge/internal/errors"
)

const (
	defaultPageSize    = 5
	defaultConcurrency = 5
)

// RunStats tallies the outcomes of one run.
type RunStats struct {
	Pages   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Processed returns the total number of tickets processed.
func (s RunStats) Processed() int {
	return s.Created + s.Updated + s.Skipped + s.Failed
}

// Runner pages through the source and dispatches each page's tickets to the
// engine with bounded concurrency. Tickets within a page run independently
// and unordered; the runner waits for the whole page before fetching the
// next one.
type Runner struct {
	engine      *Engine
	source      TicketSource
	pageSize    int
	concurrency int
	logger      *slog.Logger
}

// NewRunner creates a Runner. Zero pageSize or concurrency take defaults;
// concurrency is additionally capped at the page size, the rate-control
// knob against the two remote APIs.
func NewRunner(engine *Engine, source TicketSource, pageSize, concurrency int, logger *slog.Logger) *Runner {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > pageSize {
		concurrency = pageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		engine:      engine,
		source:      source,
		pageSize:    pageSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run pulls pages until the source is exhausted. A page fetch failure
// aborts the run; per-ticket failures never do.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	for page := 1; ; page++ {
		tickets, err := r.source.FetchPage(ctx, page, r.pageSize)
		if err != nil {
			return stats, tberrors.Wrap(tberrors.CodePageFetch,
				fmt.Sprintf("fetch ticket page %d", page), err)
		}
		if len(tickets) == 0 {
			break
		}

		r.logger.Info("processing ticket page", "page", page, "tickets", len(tickets))

		var mu sync.Mutex
		g := new(errgroup.Group)
		g.SetLimit(r.concurrency)
		for _, ticket := range tickets {
			ticket := ticket
			g.Go(func() error {
				outcome := r.engine.ProcessTicket(ctx, ticket)
				r.logger.Info("ticket processed",
					"ticket_id", outcome.TicketID, "outcome", outcome.Kind.String())

				mu.Lock()
				defer mu.Unlock()
				switch outcome.Kind {
				case OutcomeCreated:
					stats.Created++
				case OutcomeUpdated:
					stats.Updated++
				case OutcomeSkipped:
					stats.Skipped++
				case OutcomeFailed:
					stats.Failed++
				}
				return nil
			})
		}
		// Workers only ever return nil; errors stay ticket-scoped.
		_ = g.Wait()

		stats.Pages++
	}

	r.logger.Info("run complete",
		"pages", stats.Pages, "created", stats.Created, "updated", stats.Updated,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}
