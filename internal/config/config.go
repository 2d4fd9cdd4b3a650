// Package config loads the batch-mode configuration the CLI uses to drive
// check/create across many database directories at once: a strict JSON or
// YAML file, selected by extension, with unknown keys rejected outright.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// BatchJob names one database directory to drive: entries named in
// EntryDescFiles are parsed and upserted, then entries named in
// RemoveEntries are deleted, in that order.
type BatchJob struct {
	Dir            string   `json:"dir" yaml:"dir"`
	SchemaVersion  int      `json:"schema_version" yaml:"schema_version"`
	EntryDescFiles []string `json:"entry_desc_files" yaml:"entry_desc_files"`
	RemoveEntries  []string `json:"remove_entries" yaml:"remove_entries"`
}

// Batch is the top-level configuration file: an ordered list of jobs run
// in sequence, stopping at the first failure.
type Batch struct {
	Jobs []BatchJob `json:"jobs" yaml:"jobs"`
}

// Load reads and strictly decodes a Batch from path, choosing JSON or YAML
// by file extension the same way the teacher's repository loader does.
func Load(path string) (*Batch, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var b Batch
	if err := unmarshal(path, content, &b); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &b, nil
}

// unmarshal parses JSON or YAML based on file extension, rejecting any key
// not named by the target struct.
func unmarshal(path string, data []byte, v interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	r := bytes.NewReader(data)
	if ext == ".yaml" || ext == ".yml" {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(v)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
