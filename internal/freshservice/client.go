package freshservice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	tberrors "github.com/randalmurphal/ticketbridge/internal/errors"
	"github.com/randalmurphal/ticketbridge/internal/transform"
)

// maxErrorBody caps how much of an error response is carried in RemoteError.
const maxErrorBody = 2048

// Config holds the connection settings for the helpdesk instance.
type Config struct {
	// Domain is the instance host (e.g. "acme.freshservice.com").
	Domain string
	// APIKey is the per-agent API key used for basic auth.
	APIKey string
	// FetchQuery is the opaque filter expression selecting tickets to sync.
	FetchQuery string
}

// Client is the source ticket adapter.
type Client struct {
	http       *retryablehttp.Client
	baseURL    string
	authHeader string
	fetchQuery string
	logger     *slog.Logger
}

// NewClient creates a helpdesk client with basic auth and retrying HTTP.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("freshservice domain is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("freshservice API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil

	// The API uses the key as the basic-auth user with a fixed "X" password.
	token := base64.StdEncoding.EncodeToString([]byte(cfg.APIKey + ":X"))

	return &Client{
		http:       rc,
		baseURL:    "https://" + cfg.Domain,
		authHeader: "Basic " + token,
		fetchQuery: cfg.FetchQuery,
		logger:     logger,
	}, nil
}

// SetFetchQuery replaces the filter expression. Called once per run after
// the mapping workbook is loaded.
func (c *Client) SetFetchQuery(query string) {
	c.fetchQuery = query
}

func (c *Client) do(ctx context.Context, op, method, url string, body []byte) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &tberrors.RemoteError{System: "freshservice", Op: op, Cause: err}
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &tberrors.RemoteError{System: "freshservice", Op: op, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &tberrors.RemoteError{System: "freshservice", Op: op, StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode >= 400 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &tberrors.RemoteError{System: "freshservice", Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// FetchPage returns one page of tickets matching the filter expression.
func (c *Client) FetchPage(ctx context.Context, page, perPage int) ([]*Ticket, error) {
	c.logger.Info("fetching ticket page", "page", page, "per_page", perPage)

	url := fmt.Sprintf("%s/api/v2/tickets/filter?page=%d&per_page=%d&query=%s",
		c.baseURL, page, perPage, EncodeQuery(c.fetchQuery))

	data, err := c.do(ctx, "fetch ticket page", http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Tickets []*Ticket `json:"tickets"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &tberrors.RemoteError{System: "freshservice", Op: "fetch ticket page", Cause: err}
	}

	c.logger.Info("fetched ticket page", "page", page, "count", len(out.Tickets))
	return out.Tickets, nil
}

// FetchDetail returns the full ticket, including fields the paged list view
// omits.
func (c *Client) FetchDetail(ctx context.Context, id int64) (*Ticket, error) {
	url := fmt.Sprintf("%s/api/v2/tickets/%d?include=tags,requester,department", c.baseURL, id)

	data, err := c.do(ctx, "fetch ticket detail", http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Ticket *Ticket `json:"ticket"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &tberrors.RemoteError{System: "freshservice", Op: "fetch ticket detail", Cause: err}
	}
	return out.Ticket, nil
}

// FetchAgent returns the agent record for a responder id.
func (c *Client) FetchAgent(ctx context.Context, id int64) (*Agent, error) {
	url := fmt.Sprintf("%s/api/v2/agents/%d", c.baseURL, id)

	data, err := c.do(ctx, "fetch agent", http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Agent *Agent `json:"agent"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &tberrors.RemoteError{System: "freshservice", Op: "fetch agent", Cause: err}
	}
	return out.Agent, nil
}

// UpdateTicket applies the reverse-mapped update body to a ticket.
func (c *Client) UpdateTicket(ctx context.Context, id int64, body *transform.UpdateBody) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode ticket update: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tickets/%d", c.baseURL, id)
	_, err = c.do(ctx, "update ticket", http.MethodPut, url, payload)
	return err
}

// FetchAttachment downloads an attachment's bytes. Attachment URLs are
// absolute and pre-signed by the helpdesk.
func (c *Client) FetchAttachment(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, "fetch attachment", http.MethodGet, url, nil)
}
