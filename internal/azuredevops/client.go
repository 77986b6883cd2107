package azuredevops

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	tberrors "github.com/randalmurphal/ticketbridge/internal/errors"
)

const (
	defaultAPIVersion   = "7.1"
	createAPIVersion    = "7.1-preview.3"
	defaultWorkItemType = "Bug"
	maxErrorBody        = 2048
)

// Config holds the connection settings for the tracker organization.
type Config struct {
	// OrgURL is the organization base URL (e.g. "https://dev.azure.com/acme").
	OrgURL string
	// Project is the team project the work items live in.
	Project string
	// Username and Token form the basic-auth pair (a PAT uses an empty or
	// arbitrary username).
	Username string
	Token    string
	// WorkItemType is the type created for new items. Defaults to Bug.
	WorkItemType string
}

// Client is the target work item adapter.
type Client struct {
	http         *retryablehttp.Client
	baseURL      string
	authHeader   string
	workItemType string
	logger       *slog.Logger
}

// NewClient creates a tracker client with basic auth and retrying HTTP.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.OrgURL == "" {
		return nil, fmt.Errorf("azure devops organization URL is required")
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("azure devops project is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("azure devops token is required")
	}
	if cfg.WorkItemType == "" {
		cfg.WorkItemType = defaultWorkItemType
	}
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil

	token := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Token))

	return &Client{
		http:         rc,
		baseURL:      strings.TrimRight(cfg.OrgURL, "/") + "/DefaultCollection/" + cfg.Project + "/_apis",
		authHeader:   "Basic " + token,
		workItemType: cfg.WorkItemType,
		logger:       logger,
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, url, contentType string, body []byte) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &tberrors.RemoteError{System: "azuredevops", Op: op, Cause: err}
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &tberrors.RemoteError{System: "azuredevops", Op: op, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &tberrors.RemoteError{System: "azuredevops", Op: op, StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode >= 400 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &tberrors.RemoteError{System: "azuredevops", Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func (c *Client) patchWorkItem(ctx context.Context, op, url string, patch []PatchOperation) (*WorkItem, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	data, err := c.do(ctx, op, http.MethodPatch, url, "application/json-patch+json", payload)
	if err != nil {
		return nil, err
	}

	var item WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, &tberrors.RemoteError{System: "azuredevops", Op: op, Cause: err}
	}
	return &item, nil
}

// CreateWorkItem creates a work item of the configured type from a patch.
func (c *Client) CreateWorkItem(ctx context.Context, patch []PatchOperation) (*WorkItem, error) {
	c.logger.Info("creating work item", "type", c.workItemType, "ops", len(patch))

	endpoint := fmt.Sprintf("%s/wit/workitems/$%s?api-version=%s",
		c.baseURL, url.PathEscape(c.workItemType), createAPIVersion)
	return c.patchWorkItem(ctx, "create work item", endpoint, patch)
}

// GetWorkItem fetches a work item by id.
func (c *Client) GetWorkItem(ctx context.Context, id int) (*WorkItem, error) {
	endpoint := fmt.Sprintf("%s/wit/workitems/%d?api-version=%s", c.baseURL, id, defaultAPIVersion)

	data, err := c.do(ctx, "get work item", http.MethodGet, endpoint, "application/json", nil)
	if err != nil {
		return nil, err
	}

	var item WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, &tberrors.RemoteError{System: "azuredevops", Op: "get work item", Cause: err}
	}
	return &item, nil
}

// UpdateWorkItem applies a patch to an existing work item.
func (c *Client) UpdateWorkItem(ctx context.Context, id int, patch []PatchOperation) (*WorkItem, error) {
	endpoint := fmt.Sprintf("%s/wit/workitems/%d?api-version=%s", c.baseURL, id, defaultAPIVersion)
	return c.patchWorkItem(ctx, "update work item", endpoint, patch)
}

// UploadAttachment uploads raw attachment bytes and returns the artifact
// reference used for linking.
func (c *Client) UploadAttachment(ctx context.Context, name, contentType string, data []byte) (*AttachmentRef, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadURL := fmt.Sprintf("%s/wit/attachments?fileName=%s&api-version=%s",
		c.baseURL, url.QueryEscape(name), defaultAPIVersion)

	respData, err := c.do(ctx, "upload attachment", http.MethodPost, uploadURL, contentType, data)
	if err != nil {
		return nil, err
	}

	var ref AttachmentRef
	if err := json.Unmarshal(respData, &ref); err != nil {
		return nil, &tberrors.RemoteError{System: "azuredevops", Op: "upload attachment", Cause: err}
	}
	return &ref, nil
}

// LinkAttachment attaches an uploaded artifact to a work item.
func (c *Client) LinkAttachment(ctx context.Context, workItemID int, url, comment string) error {
	_, err := c.UpdateWorkItem(ctx, workItemID, []PatchOperation{AttachmentLink(url, comment)})
	return err
}
