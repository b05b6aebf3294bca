// Package dataset reads partner records from JSON or YAML files.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"partner-insights/internal/common/validation"
	"partner-insights/internal/models"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrInvalidRecord     = errors.New("invalid partner record")
)

// file accepts either a bare list of partners or an object with a partners key.
type file struct {
	Partners []models.Partner `json:"partners" yaml:"partners"`
}

// Load reads and validates every record in path. The format follows the file
// extension: .json, .yaml or .yml.
func Load(path string) ([]models.Partner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return Parse(data, "json")
	case ".yaml", ".yml":
		return Parse(data, "yaml")
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Parse decodes data in the given format ("json" or "yaml") and validates it.
func Parse(data []byte, format string) ([]models.Partner, error) {
	var (
		partners []models.Partner
		err      error
	)
	switch format {
	case "json":
		partners, err = decodeJSON(data)
	case "yaml":
		partners, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(partners))
	for i, p := range partners {
		if err := validation.ValidatePartner(p).Err(); err != nil {
			return nil, fmt.Errorf("%w at index %d (%s): %v", ErrInvalidRecord, i, p.ID, err)
		}
		if j, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w at index %d: id %q already used at index %d", ErrInvalidRecord, i, p.ID, j)
		}
		seen[p.ID] = i
	}
	return partners, nil
}

func decodeJSON(data []byte) ([]models.Partner, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var partners []models.Partner
		if err := json.Unmarshal(trimmed, &partners); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
		return partners, nil
	}
	var f file
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, fmt.Errorf("decode json dataset: %w", err)
	}
	return f.Partners, nil
}

func decodeYAML(data []byte) ([]models.Partner, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode yaml dataset: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var partners []models.Partner
		if err := root.Decode(&partners); err != nil {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
		return partners, nil
	}
	var f file
	if err := root.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml dataset: %w", err)
	}
	return f.Partners, nil
}
