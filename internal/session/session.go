// Package session holds the working state of one configuration run:
// named networks loaded from source files and the projects generated
// from them. A Session has a caller-controlled lifecycle (create, load,
// validate, generate, discard) and is not safe for concurrent use; give
// each caller its own.
package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/autosar-community/ecucgen/internal/arxml"
	"github.com/autosar-community/ecucgen/internal/builder"
	"github.com/autosar-community/ecucgen/internal/dbc"
	"github.com/autosar-community/ecucgen/internal/ldf"
	"github.com/autosar-community/ecucgen/internal/logger"
	"github.com/autosar-community/ecucgen/internal/model"
	"github.com/autosar-community/ecucgen/internal/schema"
	"github.com/autosar-community/ecucgen/internal/validator"
	"github.com/autosar-community/ecucgen/internal/xlsx"
)

type Session struct {
	version model.AutosarVersion
	schema  *schema.Schema

	canNetworks map[string]*model.CANDatabase
	linNetworks map[string]*model.LINNetwork
	canOrder    []string
	linOrder    []string

	projects    map[string]*model.Project
	sourceFiles []string
}

// New creates an empty session targeting the given AUTOSAR version. An
// empty version selects 4.2.2.
func New(version model.AutosarVersion) *Session {
	if version == "" {
		version = model.AutosarVersion422
	}
	return &Session{
		version:     version,
		schema:      schema.DefaultSchema(),
		canNetworks: make(map[string]*model.CANDatabase),
		linNetworks: make(map[string]*model.LINNetwork),
		projects:    make(map[string]*model.Project),
	}
}

func (s *Session) Version() model.AutosarVersion { return s.version }

// MergeSchema overlays extra release and module definitions onto the
// session's schema table.
func (s *Session) MergeSchema(other *schema.Schema) {
	s.schema.Merge(other)
}

// Load reads a network description, picking the loader from the file
// extension.
func (s *Session) Load(path, name string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dbc":
		_, err := s.LoadDBC(path, name)
		return err
	case ".ldf":
		_, err := s.LoadLDF(path, name)
		return err
	case ".xlsx":
		_, err := s.LoadXLSX(path, name)
		return err
	default:
		return &model.ParseError{
			File: path,
			Err: fmt.Errorf("Unsupported file extension: %s. Expected one of: .dbc, .ldf, .xlsx",
				filepath.Ext(path)),
		}
	}
}

// LoadDBC loads a CAN network from a DBC file and registers it under
// name. An empty name falls back to the file stem.
func (s *Session) LoadDBC(path, name string) (*model.CANDatabase, error) {
	logger.Printf("Loading DBC file: %s", path)
	db, err := dbc.Load(path)
	if err != nil {
		return nil, err
	}
	if name != "" {
		db.Name = name
	}
	s.addCAN(db)
	s.addSource(path)
	logger.Printf("Loaded CAN network '%s' with %d messages", db.Name, len(db.Messages))
	return db, nil
}

// LoadLDF loads a LIN network from an LDF file and registers it under
// name. An empty name falls back to the file stem.
func (s *Session) LoadLDF(path, name string) (*model.LINNetwork, error) {
	logger.Printf("Loading LDF file: %s", path)
	network, err := ldf.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if name != "" {
		network.Name = name
	}
	s.addLIN(network)
	s.addSource(path)
	logger.Printf("Loaded LIN network '%s' with %d frames", network.Name, len(network.Frames))
	return network, nil
}

// LoadXLSX loads a CAN network from a message matrix workbook and
// registers it under name. An empty name falls back to the file stem.
func (s *Session) LoadXLSX(path, name string) (*model.CANDatabase, error) {
	logger.Printf("Loading XLSX file: %s", path)
	db, err := xlsx.Load(path)
	if err != nil {
		return nil, err
	}
	if name != "" {
		db.Name = name
	}
	s.addCAN(db)
	s.addSource(path)
	logger.Printf("Loaded CAN network '%s' with %d messages", db.Name, len(db.Messages))
	return db, nil
}

// Validate runs the cross-entity checks over every loaded network, CAN
// first, in load order. All diagnostics are returned; the error is
// non-nil when any of them is an error-level violation.
func (s *Session) Validate() ([]validator.Diagnostic, error) {
	logger.Printf("Validating loaded data...")

	v := validator.NewValidator()
	for _, name := range s.canOrder {
		logger.Debugf("Validating CAN network: %s", name)
		v.CheckCANDatabase(s.canNetworks[name])
	}
	for _, name := range s.linOrder {
		logger.Debugf("Validating LIN network: %s", name)
		v.CheckLINNetwork(s.linNetworks[name])
	}

	if err := v.Err(); err != nil {
		logger.Errorf("%v", err)
		return v.Diagnostics, err
	}
	logger.Printf("Validation passed successfully")
	return v.Diagnostics, nil
}

// GenerateProject builds an ECUC project from the loaded networks and
// keeps it in the session under its name. The builder re-validates the
// networks before assembling anything.
func (s *Session) GenerateProject(name, ecuInstance string, modules []string) (*model.Project, error) {
	logger.Printf("Generating ECUC project '%s'...", name)
	b := builder.NewBuilder(s.schema, s.version)
	project, err := b.Build(builder.Request{
		ProjectName: name,
		EcuInstance: ecuInstance,
		Modules:     modules,
		CANNetworks: s.CANNetworks(),
		LINNetworks: s.LINNetworks(),
		SourceFiles: s.SourceFiles(),
	})
	if err != nil {
		return nil, err
	}
	s.projects[name] = project
	return project, nil
}

// WriteProject serializes a generated project to path.
func (s *Session) WriteProject(name, path string) error {
	project, ok := s.projects[name]
	if !ok {
		return &model.GenerationError{
			Message: "Failed to generate ECUC ARXML",
			Err:     fmt.Errorf("unknown project '%s'", name),
		}
	}
	return arxml.NewWriter(s.schema).Write(project, path)
}

func (s *Session) ProjectByName(name string) (*model.Project, bool) {
	p, ok := s.projects[name]
	return p, ok
}

// CANNetworks returns the loaded CAN networks in load order.
func (s *Session) CANNetworks() []*model.CANDatabase {
	out := make([]*model.CANDatabase, 0, len(s.canOrder))
	for _, name := range s.canOrder {
		out = append(out, s.canNetworks[name])
	}
	return out
}

// LINNetworks returns the loaded LIN networks in load order.
func (s *Session) LINNetworks() []*model.LINNetwork {
	out := make([]*model.LINNetwork, 0, len(s.linOrder))
	for _, name := range s.linOrder {
		out = append(out, s.linNetworks[name])
	}
	return out
}

func (s *Session) CANNetwork(name string) (*model.CANDatabase, bool) {
	db, ok := s.canNetworks[name]
	return db, ok
}

func (s *Session) LINNetwork(name string) (*model.LINNetwork, bool) {
	network, ok := s.linNetworks[name]
	return network, ok
}

// SourceFiles returns the absolute paths of everything loaded so far,
// in load order.
func (s *Session) SourceFiles() []string {
	out := make([]string, len(s.sourceFiles))
	copy(out, s.sourceFiles)
	return out
}

// NetworkSummary describes one loaded network for reporting.
type NetworkSummary struct {
	Type     string `json:"type"`
	Baudrate int    `json:"baudrate"`
	Messages int    `json:"messages,omitempty"`
	Frames   int    `json:"frames,omitempty"`
	Signals  int    `json:"signals"`
	Nodes    int    `json:"nodes"`
}

// Summary aggregates counts over everything the session holds. LIN
// signal counts cover the placed frame signals, not the declaration
// list.
type Summary struct {
	AutosarVersion string                    `json:"autosar_version"`
	SourceFiles    int                       `json:"source_files"`
	CANNetworks    int                       `json:"can_networks"`
	LINNetworks    int                       `json:"lin_networks"`
	EcuConfigs     int                       `json:"ecu_configs"`
	Networks       map[string]NetworkSummary `json:"networks"`
}

func (s *Session) Summary() Summary {
	summary := Summary{
		AutosarVersion: string(s.version),
		SourceFiles:    len(s.sourceFiles),
		CANNetworks:    len(s.canNetworks),
		LINNetworks:    len(s.linNetworks),
		EcuConfigs:     len(s.projects),
		Networks:       make(map[string]NetworkSummary),
	}
	for name, db := range s.canNetworks {
		summary.Networks[name] = NetworkSummary{
			Type:     "CAN",
			Baudrate: db.Baudrate,
			Messages: len(db.Messages),
			Signals:  db.SignalCount(),
			Nodes:    len(db.Nodes),
		}
	}
	for name, network := range s.linNetworks {
		signals := 0
		for _, frame := range network.Frames {
			signals += len(frame.Signals)
		}
		summary.Networks[name] = NetworkSummary{
			Type:     "LIN",
			Baudrate: network.Baudrate(),
			Frames:   len(network.Frames),
			Signals:  signals,
			Nodes:    len(network.Nodes),
		}
	}
	return summary
}

// Clear drops every loaded network, source file, and generated project.
func (s *Session) Clear() {
	s.canNetworks = make(map[string]*model.CANDatabase)
	s.linNetworks = make(map[string]*model.LINNetwork)
	s.projects = make(map[string]*model.Project)
	s.canOrder = nil
	s.linOrder = nil
	s.sourceFiles = nil
	logger.Printf("Session data cleared")
}

// Reloading a name keeps its original position in load order.
func (s *Session) addCAN(db *model.CANDatabase) {
	if _, exists := s.canNetworks[db.Name]; !exists {
		s.canOrder = append(s.canOrder, db.Name)
	}
	s.canNetworks[db.Name] = db
}

func (s *Session) addLIN(network *model.LINNetwork) {
	if _, exists := s.linNetworks[network.Name]; !exists {
		s.linOrder = append(s.linOrder, network.Name)
	}
	s.linNetworks[network.Name] = network
}

func (s *Session) addSource(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	s.sourceFiles = append(s.sourceFiles, abs)
}
