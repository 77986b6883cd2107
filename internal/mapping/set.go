package mapping

import "fmt"

// FetchQueryKey is the URL-section key holding the source system's filter
// query expression.
const FetchQueryKey = "FS_FETCH_QUERY"

// Document is the raw, source-agnostic shape of the mapping configuration
// as produced by the workbook or YAML loaders. NewSet validates it.
type Document struct {
	SingleFields  []SingleField  `yaml:"single_fields"`
	RepoFields    []RepoField    `yaml:"repo_fields"`
	URLEntries    []URLEntry     `yaml:"url_entries"`
	ProductFields []ProductField `yaml:"product_fields"`
	Catalog       []CatalogEntry `yaml:"catalog"`
}

// URLEntry is one key/value row of the URL section.
type URLEntry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Set is the validated, immutable mapping set for one run.
type Set struct {
	byDirection   map[Direction][]SingleField
	repoFields    []RepoField
	productFields []ProductField
	catalog       []CatalogEntry
	fetchQuery    string
}

// NewSet validates every record of the document and builds the run's mapping
// set. The first invalid record fails the whole load.
func NewSet(doc Document) (*Set, error) {
	s := &Set{
		byDirection: make(map[Direction][]SingleField),
	}

	for i, m := range doc.SingleFields {
		if err := m.validate(); err != nil {
			return nil, &ConfigError{Section: "SingleField", Row: i + 1, Reason: err.Error()}
		}
		s.byDirection[m.Direction] = append(s.byDirection[m.Direction], m)
	}
	for i, m := range doc.RepoFields {
		if err := m.validate(); err != nil {
			return nil, &ConfigError{Section: "Repo", Row: i + 1, Reason: err.Error()}
		}
		s.repoFields = append(s.repoFields, m)
	}
	for i, m := range doc.ProductFields {
		if err := m.validate(); err != nil {
			return nil, &ConfigError{Section: "ProductsFields", Row: i + 1, Reason: err.Error()}
		}
		s.productFields = append(s.productFields, m)
	}
	for i, e := range doc.Catalog {
		if err := e.validate(); err != nil {
			return nil, &ConfigError{Section: "ProductsData", Row: i + 1, Reason: err.Error()}
		}
		s.catalog = append(s.catalog, e)
	}

	for _, u := range doc.URLEntries {
		if u.Key == FetchQueryKey {
			s.fetchQuery = u.Value
		}
	}
	if s.fetchQuery == "" {
		return nil, &ConfigError{Section: "URL", Reason: fmt.Sprintf("no %s entry", FetchQueryKey)}
	}

	return s, nil
}

// FieldsFor returns the single-field mappings flowing in the given direction.
func (s *Set) FieldsFor(d Direction) []SingleField {
	return s.byDirection[d]
}

// RepoFields returns the long-form description mappings in sheet order.
func (s *Set) RepoFields() []RepoField {
	return s.repoFields
}

// ProductFields returns the product routing field mappings.
func (s *Set) ProductFields() []ProductField {
	return s.productFields
}

// ProductLookup finds the catalog entry for a product name and version.
func (s *Set) ProductLookup(name, version string) (CatalogEntry, bool) {
	for _, e := range s.catalog {
		if e.ProductName == name && e.ProductVersion == version {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// FetchQuery returns the source system filter expression from the URL
// section. Opaque to everything but the source adapter.
func (s *Set) FetchQuery() string {
	return s.fetchQuery
}
