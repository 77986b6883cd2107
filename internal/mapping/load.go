package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a mapping set from path, dispatching on the file extension.
// Workbooks (.xlsx) are the production format; YAML carries the same schema
// and is handy for development and fixtures.
func Load(path string) (*Set, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadWorkbook(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported mapping file type %q (want .xlsx, .yaml or .yml)", filepath.Ext(path))
	}
}

// LoadYAML reads the YAML form of the mapping document and returns the
// validated mapping set.
func LoadYAML(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML validates a YAML mapping document.
func ParseYAML(data []byte) (*Set, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mapping yaml: %w", err)
	}
	return NewSet(doc)
}
