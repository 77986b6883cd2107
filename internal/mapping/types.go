// Package mapping holds the typed, validated representation of the
// field-mapping configuration that drives a sync run. The set is loaded once
// per run and is read-only afterward, so it can be shared freely across
// concurrent ticket tasks.
package mapping

import "fmt"

// Direction says which way a mapping record flows. The two directions
// partition the single-field records into disjoint sets; no record serves
// both.
type Direction string

const (
	// SourceToTarget flows helpdesk ticket fields into the work item tracker.
	SourceToTarget Direction = "FS_TO_ADO"
	// TargetToSource flows work item fields back onto the helpdesk ticket.
	TargetToSource Direction = "ADO_TO_FS"
)

func (d Direction) valid() bool {
	return d == SourceToTarget || d == TargetToSource
}

// ValueType controls value conversion on the reverse direction.
type ValueType string

const (
	ValueTypeNone ValueType = ""
	ValueTypeText ValueType = "text"
	ValueTypeDate ValueType = "date"
)

func (t ValueType) valid() bool {
	return t == ValueTypeNone || t == ValueTypeText || t == ValueTypeDate
}

// SingleField maps one source field to one target field in one direction.
type SingleField struct {
	SourceField string    `yaml:"source_field"`
	Custom      bool      `yaml:"custom"`
	MultiValue  bool      `yaml:"multi_value"`
	ValueType   ValueType `yaml:"value_type"`
	TargetField string    `yaml:"target_field"`
	Direction   Direction `yaml:"direction"`
}

func (m SingleField) validate() error {
	if m.SourceField == "" {
		return fmt.Errorf("source field key is empty")
	}
	if m.TargetField == "" {
		return fmt.Errorf("target field key is empty")
	}
	if !m.Direction.valid() {
		return fmt.Errorf("direction %q is not %q or %q", m.Direction, SourceToTarget, TargetToSource)
	}
	if !m.ValueType.valid() {
		return fmt.Errorf("value type %q is not %q, %q or empty", m.ValueType, ValueTypeText, ValueTypeDate)
	}
	return nil
}

// RepoField is one labeled block of the aggregated long-form description.
// All repo records collapse into a single HTML assignment on the target.
type RepoField struct {
	SourceField string    `yaml:"source_field"`
	Custom      bool      `yaml:"custom"`
	MultiValue  bool      `yaml:"multi_value"`
	Direction   Direction `yaml:"direction"`
	Title       string    `yaml:"title"`
}

func (m RepoField) validate() error {
	if m.SourceField == "" {
		return fmt.Errorf("source field key is empty")
	}
	if m.Title == "" {
		return fmt.Errorf("title text is empty")
	}
	if !m.Direction.valid() {
		return fmt.Errorf("direction %q is not %q or %q", m.Direction, SourceToTarget, TargetToSource)
	}
	return nil
}

// ProductField maps one target field to a named attribute of the product
// catalog entry matched for the ticket.
type ProductField struct {
	TargetField string    `yaml:"target_field"`
	CatalogKey  string    `yaml:"catalog_key"`
	Direction   Direction `yaml:"direction"`
}

func (m ProductField) validate() error {
	if m.TargetField == "" {
		return fmt.Errorf("target field key is empty")
	}
	if m.CatalogKey == "" {
		return fmt.Errorf("catalog key is empty")
	}
	if !m.Direction.valid() {
		return fmt.Errorf("direction %q is not %q or %q", m.Direction, SourceToTarget, TargetToSource)
	}
	if _, ok := (CatalogEntry{}).Attribute(m.CatalogKey); !ok {
		return fmt.Errorf("catalog key %q names no catalog attribute", m.CatalogKey)
	}
	return nil
}

// CatalogEntry is one row of the product catalog, keyed by product name and
// version. Its attributes populate the routing fields of new work items.
type CatalogEntry struct {
	ProductName    string `yaml:"product_name"`
	ProductVersion string `yaml:"product_version"`
	AreaPath       string `yaml:"area_path"`
	IterationPath  string `yaml:"iteration_path"`
	TeamProject    string `yaml:"team_project"`
	Developer      string `yaml:"developer"`
	Tester         string `yaml:"tester"`
	WorkItemType   string `yaml:"work_item_type"`
	AssignedTo     string `yaml:"assigned_to"`
}

// Attribute returns the named attribute value. The second return is false
// when the key names no attribute at all, which is a configuration error
// rather than a per-ticket fault.
func (e CatalogEntry) Attribute(key string) (string, bool) {
	switch key {
	case "AreaPath":
		return e.AreaPath, true
	case "IterationPath":
		return e.IterationPath, true
	case "TeamProject":
		return e.TeamProject, true
	case "Developer":
		return e.Developer, true
	case "Tester":
		return e.Tester, true
	case "WorkItemType":
		return e.WorkItemType, true
	case "AssignedTo":
		return e.AssignedTo, true
	case "ProductName":
		return e.ProductName, true
	case "ProductVersion":
		return e.ProductVersion, true
	default:
		return "", false
	}
}

func (e CatalogEntry) validate() error {
	if e.ProductName == "" {
		return fmt.Errorf("product name is empty")
	}
	if e.ProductVersion == "" {
		return fmt.Errorf("product version is empty")
	}
	return nil
}

// ConfigError reports invalid or missing mapping configuration. Any record
// failing validation fails the whole load; a partially applied mapping set
// could silently drop ticket data.
type ConfigError struct {
	Section string
	Row     int // 1-based data row, 0 when not row-scoped
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("mapping config %s row %d: %s", e.Section, e.Row, e.Reason)
	}
	return fmt.Sprintf("mapping config %s: %s", e.Section, e.Reason)
}
