// Package arxml serializes ECUC projects into AUTOSAR ARXML documents.
// The emitted tree shape follows the configuration-value interchange
// contract: one ECUC-VALUE-COLLECTION per project, one
// ECUC-MODULE-CONFIGURATION-VALUES per module, recursive
// ECUC-CONTAINER-VALUE elements, and one of three parameter element
// shapes chosen by value kind.
package arxml

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	"github.com/autosar-community/ecucgen/internal/logger"
	"github.com/autosar-community/ecucgen/internal/model"
	"github.com/autosar-community/ecucgen/internal/schema"
)

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// Writer renders projects against the release table of its schema.
type Writer struct {
	schema *schema.Schema
}

func NewWriter(s *schema.Schema) *Writer {
	return &Writer{schema: s}
}

// Document builds the ARXML document for a project in memory.
func (w *Writer) Document(p *model.Project) (*etree.Document, error) {
	release, ok := w.schema.Release(p.Version)
	if !ok {
		return nil, &model.GenerationError{
			Message: "Failed to generate ECUC ARXML",
			Err:     fmt.Errorf("unsupported AUTOSAR version '%s'", p.Version),
		}
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("AUTOSAR")
	root.CreateAttr("xmlns", release.Namespace)
	root.CreateAttr("xmlns:xsi", xsiNamespace)
	root.CreateAttr("xsi:schemaLocation", release.SchemaLocation)

	// Releases before 4.5 carry their revision label in ADMIN-DATA.
	if release.RevisionLabel != "" {
		admin := root.CreateElement("ADMIN-DATA")
		revisions := admin.CreateElement("DOC-REVISIONS")
		revision := revisions.CreateElement("DOC-REVISION")
		revision.CreateElement("REVISION-LABEL").SetText(release.RevisionLabel)
	}

	packages := root.CreateElement("AR-PACKAGES")
	pkg := packages.CreateElement("AR-PACKAGE")
	pkg.CreateElement("SHORT-NAME").SetText(p.Name)
	longName := pkg.CreateElement("LONG-NAME")
	l4 := longName.CreateElement("L-4")
	l4.CreateAttr("L", "EN")
	l4.SetText(p.Name)

	if p.Collection != nil {
		elements := pkg.CreateElement("ELEMENTS")
		writeValueCollection(elements, p.Collection)
	}

	doc.Indent(2)
	return doc, nil
}

// Write renders the project to path, creating parent directories as
// needed.
func (w *Writer) Write(p *model.Project, path string) error {
	logger.Printf("Generating ECUC ARXML: %s", path)

	doc, err := w.Document(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &model.GenerationError{Message: "Failed to generate ECUC ARXML", Err: err}
		}
	}
	if err := doc.WriteToFile(path); err != nil {
		return &model.GenerationError{Message: "Failed to generate ECUC ARXML", Err: err}
	}

	logger.Printf("ECUC ARXML generated successfully: %s", path)
	return nil
}

func writeValueCollection(parent *etree.Element, collection *model.ValueCollection) {
	elem := parent.CreateElement("ECUC-VALUE-COLLECTION")
	elem.CreateElement("SHORT-NAME").SetText(collection.Name)
	elem.CreateElement("UUID").SetText(collection.UUID.String())
	elem.CreateElement("ECU-EXTRACT-VERSION").SetText(collection.EcuExtractVersion)

	if len(collection.Modules) == 0 {
		return
	}
	values := elem.CreateElement("ECUC-VALUES")
	for _, mod := range collection.Modules {
		writeModule(values, mod)
	}
}

func writeModule(parent *etree.Element, mod *model.ModuleConfiguration) {
	elem := parent.CreateElement("ECUC-MODULE-CONFIGURATION-VALUES")
	elem.CreateElement("SHORT-NAME").SetText(mod.Name)
	elem.CreateElement("UUID").SetText(mod.UUID.String())

	defRef := elem.CreateElement("DEFINITION-REF")
	defRef.CreateAttr("DEST", "ECUC-MODULE-DEF")
	defRef.SetText(mod.DefinitionRef)

	elem.CreateElement("IMPLEMENTATION-CONFIG-VARIANT").SetText(mod.ImplementationConfigVariant)

	if len(mod.Containers) == 0 {
		return
	}
	containers := elem.CreateElement("CONTAINERS")
	for _, c := range mod.Containers {
		writeContainer(containers, c)
	}
}

func writeContainer(parent *etree.Element, c *model.ContainerValue) {
	elem := parent.CreateElement("ECUC-CONTAINER-VALUE")
	elem.CreateElement("SHORT-NAME").SetText(c.Name)
	elem.CreateElement("UUID").SetText(c.UUID.String())

	defRef := elem.CreateElement("DEFINITION-REF")
	defRef.CreateAttr("DEST", "ECUC-PARAM-CONF-CONTAINER-DEF")
	defRef.SetText(c.DefinitionRef)

	if len(c.Parameters) > 0 {
		values := elem.CreateElement("PARAMETER-VALUES")
		for _, p := range c.Parameters {
			writeParameter(values, p)
		}
	}
	if len(c.SubContainers) > 0 {
		subs := elem.CreateElement("SUB-CONTAINERS")
		for _, sub := range c.SubContainers {
			writeContainer(subs, sub)
		}
	}
}

func writeParameter(parent *etree.Element, p *model.ParameterValue) {
	var elem *etree.Element
	switch p.Kind() {
	case model.ParameterInteger, model.ParameterFloat, model.ParameterBoolean:
		elem = parent.CreateElement("ECUC-NUMERICAL-PARAM-VALUE")
	case model.ParameterReference:
		elem = parent.CreateElement("ECUC-REFERENCE-VALUE")
	default:
		elem = parent.CreateElement("ECUC-TEXTUAL-PARAM-VALUE")
	}

	elem.CreateElement("SHORT-NAME").SetText(p.Name())
	elem.CreateElement("UUID").SetText(p.UUID().String())

	// The consumer expects the container DEST tag on non-reference
	// parameter definition refs.
	defRef := elem.CreateElement("DEFINITION-REF")
	if p.Kind() == model.ParameterReference {
		defRef.CreateAttr("DEST", "ECUC-REFERENCE-DEF")
	} else {
		defRef.CreateAttr("DEST", "ECUC-PARAM-CONF-CONTAINER-DEF")
	}
	defRef.SetText(p.DefinitionRef())

	if target, ok := p.Reference(); ok {
		ref := elem.CreateElement("VALUE-REF")
		ref.CreateAttr("DEST", "ECUC-CONTAINER-VALUE")
		ref.SetText(target)
		return
	}
	elem.CreateElement("VALUE").SetText(p.ValueText())
}
