// Package storage persists call flows as YAML, JSON or TOML documents and
// watches them for changes made outside the editor.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"callflow/internal/graph"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of one call flow.
type Document struct {
	Name        string             `json:"name" yaml:"name" toml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Version     int                `json:"version" yaml:"version" toml:"version"`
	UpdatedAt   time.Time          `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt"`
	Nodes       []graph.NodeRecord `json:"nodes" yaml:"nodes" toml:"nodes"`
}

// NewDocument snapshots s under name.
func NewDocument(name string, s *graph.Store) Document {
	return Document{Name: name, Nodes: s.Records()}
}

// WithStore returns a copy of d holding the nodes of s. Metadata is kept.
func (d Document) WithStore(s *graph.Store) Document {
	d.Nodes = s.Records()
	return d
}

// Store rebuilds the graph. Import problems are repaired and reported.
func (d Document) Store(opts ...graph.Option) (*graph.Store, []graph.Issue) {
	return graph.FromRecords(d.Nodes, opts...)
}

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatYAML, FormatJSON, FormatTOML}
}

// ParseFormat accepts a format name such as "yml" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFor picks the encoding from the file extension.
func FormatFor(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Ext is the canonical file extension of f.
func (f Format) Ext() string {
	return "." + string(f)
}

// Encode serializes d.
func Encode(d Document, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatJSON:
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case FormatTOML:
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(d); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Decode parses data.
func Decode(data []byte, f Format) (Document, error) {
	var d Document
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &d)
	case FormatJSON:
		err = json.Unmarshal(data, &d)
	case FormatTOML:
		_, err = toml.Decode(string(data), &d)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to decode %s document: %w", f, err)
	}
	return d, nil
}
