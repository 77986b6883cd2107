package azuredevops

import "github.com/randalmurphal/ticketbridge/internal/transform"

// PatchOperation is one JSON-Patch operation of a work item request.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// AddField builds the add operation for a single work item field.
func AddField(field string, value any) PatchOperation {
	return PatchOperation{Op: "add", Path: "/fields/" + field, Value: value}
}

// FieldOps converts transformer assignments into field add operations,
// preserving order.
func FieldOps(assignments []transform.Assignment) []PatchOperation {
	ops := make([]PatchOperation, 0, len(assignments))
	for _, a := range assignments {
		ops = append(ops, AddField(a.Field, a.Value))
	}
	return ops
}

// AttachmentLink builds the relation operation linking an uploaded
// attachment to a work item.
func AttachmentLink(url, comment string) PatchOperation {
	return PatchOperation{
		Op:   "add",
		Path: "/relations/-",
		Value: map[string]any{
			"rel": "AttachedFile",
			"url": url,
			"attributes": map[string]any{
				"comment": comment,
			},
		},
	}
}
