// Package azuredevops implements the target work item adapter: a JSON-Patch
// client for the tracker's work item REST API.
package azuredevops

import "github.com/randalmurphal/ticketbridge/internal/transform"

// WorkItem is a tracker work item: identifier, revision, and a field map
// addressed by target-field key.
type WorkItem struct {
	ID     int                        `json:"id"`
	Rev    int                        `json:"rev"`
	Fields map[string]transform.Value `json:"fields"`
	URL    string                     `json:"url"`
}

// AttachmentRef identifies an uploaded attachment artifact.
type AttachmentRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
