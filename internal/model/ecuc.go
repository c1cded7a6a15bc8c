package model

import (
	"strconv"

	"github.com/google/uuid"
)

type AutosarVersion string

const (
	AutosarVersion422 AutosarVersion = "4.2.2"
	AutosarVersion450 AutosarVersion = "4.5.0"
)

const (
	DefaultImplementationConfigVariant = "VariantPostBuild"
	DefaultEcuExtractVersion           = "1.0.0"
)

type ParameterKind int

const (
	ParameterInteger ParameterKind = iota
	ParameterFloat
	ParameterBoolean
	ParameterString
	ParameterReference
	ParameterEnumeration
)

func (k ParameterKind) String() string {
	switch k {
	case ParameterInteger:
		return "integer"
	case ParameterFloat:
		return "float"
	case ParameterBoolean:
		return "boolean"
	case ParameterString:
		return "string"
	case ParameterReference:
		return "reference"
	case ParameterEnumeration:
		return "enumeration"
	}
	return "unknown"
}

// ParameterValue is a tagged union: the kind and the literal are fixed
// together at construction and cannot drift apart afterwards.
type ParameterValue struct {
	uuid     uuid.UUID
	name     string
	longName string
	defRef   string
	kind     ParameterKind
	intVal   int64
	floatVal float64
	boolVal  bool
	textVal  string
	refVal   string
}

func newParameter(name, longName, defRef string, kind ParameterKind) *ParameterValue {
	return &ParameterValue{
		uuid:     uuid.New(),
		name:     name,
		longName: longName,
		defRef:   defRef,
		kind:     kind,
	}
}

func NewIntegerParameter(name, longName, defRef string, value int64) *ParameterValue {
	p := newParameter(name, longName, defRef, ParameterInteger)
	p.intVal = value
	return p
}

func NewFloatParameter(name, longName, defRef string, value float64) *ParameterValue {
	p := newParameter(name, longName, defRef, ParameterFloat)
	p.floatVal = value
	return p
}

func NewBooleanParameter(name, longName, defRef string, value bool) *ParameterValue {
	p := newParameter(name, longName, defRef, ParameterBoolean)
	p.boolVal = value
	return p
}

func NewStringParameter(name, longName, defRef, value string) *ParameterValue {
	p := newParameter(name, longName, defRef, ParameterString)
	p.textVal = value
	return p
}

func NewEnumerationParameter(name, longName, defRef, value string) *ParameterValue {
	p := newParameter(name, longName, defRef, ParameterEnumeration)
	p.textVal = value
	return p
}

// NewReferenceParameter holds a target path instead of a literal.
func NewReferenceParameter(name, longName, defRef, target string) *ParameterValue {
	p := newParameter(name, longName, defRef, ParameterReference)
	p.refVal = target
	return p
}

func (p *ParameterValue) UUID() uuid.UUID { return p.uuid }

func (p *ParameterValue) Name() string { return p.name }

func (p *ParameterValue) LongName() string { return p.longName }

func (p *ParameterValue) DefinitionRef() string { return p.defRef }

func (p *ParameterValue) Kind() ParameterKind { return p.kind }

func (p *ParameterValue) IntValue() (int64, bool) {
	return p.intVal, p.kind == ParameterInteger
}

func (p *ParameterValue) FloatValue() (float64, bool) {
	return p.floatVal, p.kind == ParameterFloat
}

func (p *ParameterValue) BoolValue() (bool, bool) {
	return p.boolVal, p.kind == ParameterBoolean
}

func (p *ParameterValue) TextValue() (string, bool) {
	return p.textVal, p.kind == ParameterString || p.kind == ParameterEnumeration
}

func (p *ParameterValue) Reference() (string, bool) {
	return p.refVal, p.kind == ParameterReference
}

// ValueText renders the literal in its serialized form. Booleans render
// lowercase, references render their target path.
func (p *ParameterValue) ValueText() string {
	switch p.kind {
	case ParameterInteger:
		return strconv.FormatInt(p.intVal, 10)
	case ParameterFloat:
		return strconv.FormatFloat(p.floatVal, 'g', -1, 64)
	case ParameterBoolean:
		return strconv.FormatBool(p.boolVal)
	case ParameterReference:
		return p.refVal
	default:
		return p.textVal
	}
}

// ContainerValue is an owned recursive tree node: a parent exclusively
// owns its parameters and sub-containers.
type ContainerValue struct {
	UUID          uuid.UUID
	Name          string
	LongName      string
	DefinitionRef string
	Parameters    []*ParameterValue
	SubContainers []*ContainerValue
}

func NewContainer(name, longName, defRef string) *ContainerValue {
	return &ContainerValue{
		UUID:          uuid.New(),
		Name:          name,
		LongName:      longName,
		DefinitionRef: defRef,
	}
}

func (c *ContainerValue) AddParameter(p *ParameterValue) {
	c.Parameters = append(c.Parameters, p)
}

func (c *ContainerValue) AddSubContainer(sub *ContainerValue) {
	c.SubContainers = append(c.SubContainers, sub)
}

func (c *ContainerValue) ParameterByName(name string) (*ParameterValue, bool) {
	for _, p := range c.Parameters {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

func (c *ContainerValue) SubContainerByName(name string) (*ContainerValue, bool) {
	for _, sub := range c.SubContainers {
		if sub.Name == name {
			return sub, true
		}
	}
	return nil, false
}

type ModuleConfiguration struct {
	UUID                        uuid.UUID
	Name                        string
	LongName                    string
	DefinitionRef               string
	ImplementationConfigVariant string
	Containers                  []*ContainerValue
}

func NewModuleConfiguration(name, longName, defRef string) *ModuleConfiguration {
	return &ModuleConfiguration{
		UUID:                        uuid.New(),
		Name:                        name,
		LongName:                    longName,
		DefinitionRef:               defRef,
		ImplementationConfigVariant: DefaultImplementationConfigVariant,
	}
}

func (m *ModuleConfiguration) AddContainer(c *ContainerValue) {
	m.Containers = append(m.Containers, c)
}

func (m *ModuleConfiguration) ContainerByName(name string) (*ContainerValue, bool) {
	for _, c := range m.Containers {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

type ValueCollection struct {
	UUID              uuid.UUID
	Name              string
	LongName          string
	Version           AutosarVersion
	EcuExtractVersion string
	Modules           []*ModuleConfiguration
}

func NewValueCollection(name, longName string, version AutosarVersion) *ValueCollection {
	return &ValueCollection{
		UUID:              uuid.New(),
		Name:              name,
		LongName:          longName,
		Version:           version,
		EcuExtractVersion: DefaultEcuExtractVersion,
	}
}

func (c *ValueCollection) AddModule(m *ModuleConfiguration) {
	c.Modules = append(c.Modules, m)
}

func (c *ValueCollection) ModuleByName(name string) (*ModuleConfiguration, bool) {
	for _, m := range c.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

type Project struct {
	UUID        uuid.UUID
	Name        string
	EcuInstance string
	Version     AutosarVersion
	Collection  *ValueCollection
	SourceFiles []string
	Metadata    map[string]MetaValue
}

func NewProject(name, ecuInstance string, version AutosarVersion) *Project {
	return &Project{
		UUID:        uuid.New(),
		Name:        name,
		EcuInstance: ecuInstance,
		Version:     version,
		Metadata:    map[string]MetaValue{},
	}
}
