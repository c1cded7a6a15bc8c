package schema

import (
	_ "embed"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/autosar-community/ecucgen/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed autosar.json
var defaultSchemaJSON []byte

// Release carries the fixed serialization strings of one AUTOSAR release.
type Release struct {
	Namespace      string `json:"namespace"`
	SchemaLocation string `json:"schema_location"`
	RevisionLabel  string `json:"revision_label,omitempty"`
}

type Schema struct {
	Releases map[string]Release `json:"releases"`
	Modules  map[string]string  `json:"modules"`
}

func NewSchema() *Schema {
	return &Schema{
		Releases: make(map[string]Release),
		Modules:  make(map[string]string),
	}
}

func LoadSchema(path string) (*Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Schema
	if err := json.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %v", err)
	}

	return &s, nil
}

// DefaultSchema returns the built-in embedded release table
func DefaultSchema() *Schema {
	var s Schema
	if err := json.Unmarshal(defaultSchemaJSON, &s); err != nil {
		panic(fmt.Sprintf("failed to parse default embedded schema: %v", err))
	}
	if s.Releases == nil {
		s.Releases = make(map[string]Release)
	}
	if s.Modules == nil {
		s.Modules = make(map[string]string)
	}
	return &s
}

// Merge adds entries from 'other' to 's'; on a shared key the entry from
// 'other' wins.
func (s *Schema) Merge(other *Schema) {
	if other == nil {
		return
	}
	for version, release := range other.Releases {
		s.Releases[version] = release
	}
	for name, defRef := range other.Modules {
		s.Modules[name] = defRef
	}
}

func (s *Schema) Release(version model.AutosarVersion) (Release, bool) {
	r, ok := s.Releases[string(version)]
	return r, ok
}

func (s *Schema) ModuleDefRef(name string) (string, bool) {
	ref, ok := s.Modules[name]
	return ref, ok
}
