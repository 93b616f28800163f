// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// papersField is the wrapper field accepted around the record sequence.
const papersField = "papers"

// LoadRecords reads an ingestion input file. The file holds either a
// sequence of records or an object whose "papers" field holds that
// sequence. Files ending in .yaml or .yml are parsed as YAML, everything
// else as JSON.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	records, err := recordsFrom(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func recordsFrom(doc any) ([]Record, error) {
	if m, ok := doc.(map[string]any); ok {
		inner, found := m[papersField]
		if !found {
			return nil, fmt.Errorf("object has no %q field", papersField)
		}
		doc = inner
	}

	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of paper records, got %T", doc)
	}

	records := make([]Record, 0, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d: expected an object, got %T", i, e)
		}
		records = append(records, Record(m))
	}
	return records, nil
}
