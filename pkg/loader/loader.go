// Package loader reads decision trees from JSON or YAML files and ships a
// built-in statistical-test selection tree used when no data file is given.
package loader

import (
	_ "embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/statcompass/statcompass/pkg/model"
)

//go:embed default_tree.json
var defaultTreeJSON []byte

// DefaultTree returns the built-in "which statistical test?" tree. The
// embedded data is parsed on every call so callers can mutate their copy
// freely.
func DefaultTree() model.TreeData {
	data, err := Parse(defaultTreeJSON, FormatJSON)
	if err != nil {
		// The embedded tree is validated by tests; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded default tree: %v", err))
	}
	return data
}

// Format identifies the serialization of a tree data file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath infers the format from a file extension. Unknown extensions
// default to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads and validates a tree from a JSON or YAML file.
func LoadFile(path string) (model.TreeData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree file: %w", err)
	}
	data, err := Parse(raw, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// Load reads and validates a tree from r in the given format.
func Load(r io.Reader, format Format) (model.TreeData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tree data: %w", err)
	}
	return Parse(raw, format)
}

// Parse decodes raw bytes into a validated tree. Dangling option targets are
// warned about but accepted: layout renders them as inert leaves, so a
// half-edited data file still loads.
func Parse(raw []byte, format Format) (model.TreeData, error) {
	var data model.TreeData
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown tree format %q", format)
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	if dangling := data.DanglingRefs(); len(dangling) > 0 {
		sort.Strings(dangling)
		log.Printf("warning: tree references missing nodes: %s", strings.Join(dangling, ", "))
	}
	return data, nil
}
