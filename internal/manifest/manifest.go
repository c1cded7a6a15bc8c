// Package manifest reads TOML run descriptions for the command line
// tool. A manifest names the project, the input network files, the
// output location, and logging options for one generation run.
package manifest

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/autosar-community/ecucgen/internal/model"
)

type Project struct {
	Name           string   `toml:"name"`
	EcuInstance    string   `toml:"ecu_instance"`
	AutosarVersion string   `toml:"autosar_version"`
	Modules        []string `toml:"modules"`
}

type Input struct {
	Path string `toml:"path"`
	Name string `toml:"name"`
}

type Output struct {
	Path   string `toml:"path"`
	Schema string `toml:"schema"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Manifest struct {
	Project Project `toml:"project"`
	Inputs  []Input `toml:"inputs"`
	Output  Output  `toml:"output"`
	Logging Logging `toml:"logging"`
}

// Load reads and validates a manifest file. A manifest must name a
// project and list at least one input.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}

	var m Manifest
	if err := toml.Unmarshal(content, &m); err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}

	if m.Project.Name == "" {
		return nil, &model.ParseError{File: path, Err: fmt.Errorf("manifest must name a project")}
	}
	if len(m.Inputs) == 0 {
		return nil, &model.ParseError{File: path, Err: fmt.Errorf("manifest must list at least one input")}
	}
	for i, input := range m.Inputs {
		if input.Path == "" {
			return nil, &model.ParseError{File: path, Err: fmt.Errorf("input %d has no path", i+1)}
		}
	}

	return &m, nil
}

// Version returns the requested AUTOSAR version, empty when the
// manifest leaves the choice to the session default.
func (m *Manifest) Version() model.AutosarVersion {
	return model.AutosarVersion(m.Project.AutosarVersion)
}

// OutputPath returns the configured output file, falling back to
// "<project>_ecuc.arxml" next to the working directory.
func (m *Manifest) OutputPath() string {
	if m.Output.Path != "" {
		return m.Output.Path
	}
	return m.Project.Name + "_ecuc.arxml"
}

const starterTemplate = `[project]
name = "%s"
ecu_instance = "%sInstance"
autosar_version = "4.2.2"
# modules = ["Can", "CanIf"]

[[inputs]]
path = "example.dbc"
# name = "PT_CAN"

[output]
path = "%s_ecuc.arxml"
# schema = "custom_schema.json"

[logging]
level = "info"
format = "text"
`

// Starter renders a commented manifest skeleton for a new project.
func Starter(projectName string) string {
	return fmt.Sprintf(starterTemplate, projectName, projectName, projectName)
}
