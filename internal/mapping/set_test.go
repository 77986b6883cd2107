package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() Document {
	return Document{
		SingleFields: []SingleField{
			{SourceField: "subject", TargetField: "System.Title", Direction: SourceToTarget},
			{SourceField: "status_detail", Custom: true, TargetField: "System.State", Direction: TargetToSource},
		},
		RepoFields: []RepoField{
			{SourceField: "steps", Custom: true, Title: "Steps", Direction: SourceToTarget},
		},
		ProductFields: []ProductField{
			{TargetField: "System.AreaPath", CatalogKey: "AreaPath", Direction: SourceToTarget},
		},
		Catalog: []CatalogEntry{
			{ProductName: "Widget", ProductVersion: "2.0", AreaPath: `Proj\Widgets`},
		},
		URLEntries: []URLEntry{
			{Key: FetchQueryKey, Value: "status:2 AND group_id:3"},
			{Key: "OTHER", Value: "ignored"},
		},
	}
}

func TestNewSet(t *testing.T) {
	set, err := NewSet(validDocument())
	require.NoError(t, err)

	assert.Len(t, set.FieldsFor(SourceToTarget), 1)
	assert.Len(t, set.FieldsFor(TargetToSource), 1)
	assert.Len(t, set.RepoFields(), 1)
	assert.Len(t, set.ProductFields(), 1)
	assert.Equal(t, "status:2 AND group_id:3", set.FetchQuery())
}

func TestNewSet_PartitionsByDirection(t *testing.T) {
	set, err := NewSet(validDocument())
	require.NoError(t, err)

	forward := set.FieldsFor(SourceToTarget)
	require.Len(t, forward, 1)
	assert.Equal(t, "subject", forward[0].SourceField)

	reverse := set.FieldsFor(TargetToSource)
	require.Len(t, reverse, 1)
	assert.Equal(t, "status_detail", reverse[0].SourceField)
}

func TestNewSet_InvalidRecords(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Document)
		section string
	}{
		{
			"empty source field",
			func(d *Document) { d.SingleFields[0].SourceField = "" },
			"SingleField",
		},
		{
			"bad direction",
			func(d *Document) { d.SingleFields[0].Direction = "SIDEWAYS" },
			"SingleField",
		},
		{
			"bad value type",
			func(d *Document) { d.SingleFields[0].ValueType = "datetime" },
			"SingleField",
		},
		{
			"repo without title",
			func(d *Document) { d.RepoFields[0].Title = "" },
			"Repo",
		},
		{
			"unknown catalog key",
			func(d *Document) { d.ProductFields[0].CatalogKey = "Nonsense" },
			"ProductsFields",
		},
		{
			"catalog entry without version",
			func(d *Document) { d.Catalog[0].ProductVersion = "" },
			"ProductsData",
		},
		{
			"missing fetch query",
			func(d *Document) { d.URLEntries = nil },
			"URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(&doc)

			_, err := NewSet(doc)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "want *ConfigError, got %T", err)
			assert.Equal(t, tt.section, cfgErr.Section)
		})
	}
}

func TestProductLookup(t *testing.T) {
	set, err := NewSet(validDocument())
	require.NoError(t, err)

	entry, ok := set.ProductLookup("Widget", "2.0")
	require.True(t, ok)
	assert.Equal(t, `Proj\Widgets`, entry.AreaPath)

	// Name and version must both match.
	_, ok = set.ProductLookup("Widget", "1.0")
	assert.False(t, ok)
	_, ok = set.ProductLookup("Gadget", "2.0")
	assert.False(t, ok)
}

func TestCatalogEntryAttribute(t *testing.T) {
	e := CatalogEntry{
		ProductName:    "Widget",
		ProductVersion: "2.0",
		AreaPath:       "a",
		IterationPath:  "i",
		TeamProject:    "p",
		Developer:      "d",
		Tester:         "t",
		WorkItemType:   "Bug",
		AssignedTo:     "x",
	}

	for key, want := range map[string]string{
		"AreaPath":       "a",
		"IterationPath":  "i",
		"TeamProject":    "p",
		"Developer":      "d",
		"Tester":         "t",
		"WorkItemType":   "Bug",
		"AssignedTo":     "x",
		"ProductName":    "Widget",
		"ProductVersion": "2.0",
	} {
		got, ok := e.Attribute(key)
		assert.True(t, ok, "key %s", key)
		assert.Equal(t, want, got, "key %s", key)
	}

	_, ok := e.Attribute("Bogus")
	assert.False(t, ok)
}

func TestConfigErrorMessage(t *testing.T) {
	withRow := &ConfigError{Section: "Repo", Row: 3, Reason: "title text is empty"}
	assert.Equal(t, "mapping config Repo row 3: title text is empty", withRow.Error())

	noRow := &ConfigError{Section: "URL", Reason: "no FS_FETCH_QUERY entry"}
	assert.Equal(t, "mapping config URL: no FS_FETCH_QUERY entry", noRow.Error())
}
