// Package builder assembles ECUC value trees from loaded network
// descriptions. Each supported BSW module has a fixed recipe: the
// builder walks the networks and emits containers per recipe rule,
// so container names are unique by construction.
package builder

import (
	"fmt"
	"time"

	"github.com/autosar-community/ecucgen/internal/logger"
	"github.com/autosar-community/ecucgen/internal/model"
	"github.com/autosar-community/ecucgen/internal/schema"
	"github.com/autosar-community/ecucgen/internal/validator"
)

// Request carries everything a single generation run needs.
type Request struct {
	ProjectName string
	EcuInstance string
	// Modules to generate. Empty selects the defaults for the network
	// types present.
	Modules     []string
	CANNetworks []*model.CANDatabase
	LINNetworks []*model.LINNetwork
	SourceFiles []string
}

// Builder turns validated networks into ECUC projects.
type Builder struct {
	schema  *schema.Schema
	version model.AutosarVersion
}

func NewBuilder(s *schema.Schema, version model.AutosarVersion) *Builder {
	return &Builder{schema: s, version: version}
}

// Build checks the request's networks and assembles a project for the
// requested modules. Module names without a recipe are skipped with a
// warning so one unknown name does not sink the whole run.
func (b *Builder) Build(req Request) (*model.Project, error) {
	v := validator.NewValidator()
	for _, db := range req.CANNetworks {
		v.CheckCANDatabase(db)
	}
	for _, network := range req.LINNetworks {
		v.CheckLINNetwork(network)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	modules := req.Modules
	if len(modules) == 0 {
		if len(req.CANNetworks) > 0 {
			modules = append(modules, "CanIf", "Can", "CanTp", "PduR")
		}
		if len(req.LINNetworks) > 0 {
			modules = append(modules, "LinIf", "Lin")
		}
	}

	collection := model.NewValueCollection(
		req.ProjectName+"_EcucValues",
		req.ProjectName+" ECUC Values",
		b.version,
	)

	for _, name := range modules {
		logger.Printf("Generating module: %s", name)

		var (
			mod *model.ModuleConfiguration
			err error
		)
		switch name {
		case "CanIf":
			mod, err = b.buildCanIf(req.CANNetworks)
		case "Can":
			mod, err = b.buildCan(req.CANNetworks)
		case "LinIf":
			mod, err = b.buildLinIf(req.LINNetworks)
		case "Lin":
			mod, err = b.buildLin(req.LINNetworks)
		default:
			logger.Warnf("Module '%s' not yet implemented", name)
			continue
		}
		if err != nil {
			return nil, &model.GenerationError{Message: "Failed to generate ECUC project", Err: err}
		}
		collection.AddModule(mod)
	}

	project := model.NewProject(req.ProjectName, req.EcuInstance, b.version)
	project.Collection = collection
	project.SourceFiles = append(project.SourceFiles, req.SourceFiles...)
	project.Metadata["generated_at"] = model.MetaString(time.Now().Format(time.RFC3339))
	project.Metadata["generator"] = model.MetaString("ECUC Configurator Service")
	project.Metadata["version"] = model.MetaString("1.0.0")

	logger.Printf("ECUC project generated with %d modules", len(collection.Modules))
	return project, nil
}

func (b *Builder) moduleDefRef(name string) (string, error) {
	ref, ok := b.schema.ModuleDefRef(name)
	if !ok {
		return "", fmt.Errorf("no definition reference for module '%s'", name)
	}
	return ref, nil
}

func (b *Builder) buildCan(networks []*model.CANDatabase) (*model.ModuleConfiguration, error) {
	defRef, err := b.moduleDefRef("Can")
	if err != nil {
		return nil, err
	}
	mod := model.NewModuleConfiguration("Can", "CAN Driver Configuration", defRef)

	general := model.NewContainer("CanGeneral", "CAN General Configuration", defRef+"/CanGeneral")
	general.AddParameter(model.NewBooleanParameter(
		"CanDevErrorDetect", "Development Error Detection",
		general.DefinitionRef+"/CanDevErrorDetect", true))
	mod.AddContainer(general)

	configSet := model.NewContainer("CanConfigSet", "CAN Configuration Set", defRef+"/CanConfigSet")
	for _, db := range networks {
		configSet.AddSubContainer(b.canController(configSet.DefinitionRef, db))
	}
	mod.AddContainer(configSet)
	return mod, nil
}

func (b *Builder) canController(parentDefRef string, db *model.CANDatabase) *model.ContainerValue {
	defRef := parentDefRef + "/CanController"
	ctrl := model.NewContainer("CanController_"+db.Name, "CAN Controller for "+db.Name, defRef)
	// Controller id stays 0 until ECU descriptions carry one.
	ctrl.AddParameter(model.NewIntegerParameter(
		"CanControllerId", "Controller ID", defRef+"/CanControllerId", 0))
	ctrl.AddParameter(model.NewIntegerParameter(
		"CanControllerBaudRate", "Baudrate", defRef+"/CanControllerBaudRate", int64(db.Baudrate)))
	return ctrl
}

func (b *Builder) buildCanIf(networks []*model.CANDatabase) (*model.ModuleConfiguration, error) {
	defRef, err := b.moduleDefRef("CanIf")
	if err != nil {
		return nil, err
	}
	mod := model.NewModuleConfiguration("CanIf", "CAN Interface Configuration", defRef)

	initCfg := model.NewContainer("CanIfInitCfg", "CAN Interface Initial Configuration", defRef+"/CanIfInitCfg")
	for _, db := range networks {
		logger.Debugf("Generating CanIf config for network: %s", db.Name)

		initCfg.AddSubContainer(b.canIfCtrlCfg(initCfg.DefinitionRef, db))
		for _, msg := range db.Messages {
			if msg.IsTx() {
				initCfg.AddSubContainer(b.canIfTxPdu(initCfg.DefinitionRef, db.Name, msg))
			}
		}
		// Every message counts as received until an ECU context narrows it.
		for _, msg := range db.Messages {
			initCfg.AddSubContainer(b.canIfRxPdu(initCfg.DefinitionRef, db.Name, msg))
		}
	}
	mod.AddContainer(initCfg)
	return mod, nil
}

func (b *Builder) canIfCtrlCfg(parentDefRef string, db *model.CANDatabase) *model.ContainerValue {
	defRef := parentDefRef + "/CanIfCtrlCfg"
	cfg := model.NewContainer("CanIfCtrlCfg_"+db.Name, "Controller Config for "+db.Name, defRef)
	cfg.AddParameter(model.NewIntegerParameter(
		"CanIfCtrlId", "Controller ID", defRef+"/CanIfCtrlId", 0))
	return cfg
}

func (b *Builder) canIfTxPdu(parentDefRef, networkName string, msg *model.CANMessage) *model.ContainerValue {
	defRef := parentDefRef + "/CanIfTxPduCfg"
	pdu := model.NewContainer(
		fmt.Sprintf("CanIfTxPdu_%s_%s", networkName, msg.Name),
		"TX PDU for "+msg.Name, defRef)
	// The target schema carries the CAN identifier twice, once as the
	// PDU id and once as the bus id.
	pdu.AddParameter(model.NewIntegerParameter(
		"CanIfTxPduId", "TX PDU ID", defRef+"/CanIfTxPduId", int64(msg.ID)))
	pdu.AddParameter(model.NewIntegerParameter(
		"CanIfTxPduCanId", "CAN ID", defRef+"/CanIfTxPduCanId", int64(msg.ID)))
	return pdu
}

func (b *Builder) canIfRxPdu(parentDefRef, networkName string, msg *model.CANMessage) *model.ContainerValue {
	defRef := parentDefRef + "/CanIfRxPduCfg"
	pdu := model.NewContainer(
		fmt.Sprintf("CanIfRxPdu_%s_%s", networkName, msg.Name),
		"RX PDU for "+msg.Name, defRef)
	pdu.AddParameter(model.NewIntegerParameter(
		"CanIfRxPduId", "RX PDU ID", defRef+"/CanIfRxPduId", int64(msg.ID)))
	pdu.AddParameter(model.NewIntegerParameter(
		"CanIfRxPduCanId", "CAN ID", defRef+"/CanIfRxPduCanId", int64(msg.ID)))
	return pdu
}

func (b *Builder) buildLinIf(networks []*model.LINNetwork) (*model.ModuleConfiguration, error) {
	defRef, err := b.moduleDefRef("LinIf")
	if err != nil {
		return nil, err
	}
	mod := model.NewModuleConfiguration("LinIf", "LIN Interface Configuration", defRef)

	global := model.NewContainer("LinIfGlobalConfig", "LIN Interface Global Configuration", defRef+"/LinIfGlobalConfig")
	global.AddParameter(model.NewBooleanParameter(
		"LinIfDevErrorDetect", "Development Error Detection",
		global.DefinitionRef+"/LinIfDevErrorDetect", true))
	mod.AddContainer(global)

	for _, network := range networks {
		mod.AddContainer(b.linIfChannel(defRef, network))
	}
	return mod, nil
}

func (b *Builder) linIfChannel(moduleDefRef string, network *model.LINNetwork) *model.ContainerValue {
	defRef := moduleDefRef + "/LinIfChannel"
	channel := model.NewContainer("LinIfChannel_"+network.Name, "LIN Channel for "+network.Name, defRef)

	frameDefRef := defRef + "/LinIfFrame"
	for _, frame := range network.Frames {
		cfg := model.NewContainer("LinIfFrame_"+frame.Name, "Frame "+frame.Name, frameDefRef)
		cfg.AddParameter(model.NewStringParameter(
			"LinIfFrameType", "Frame Type", frameDefRef+"/LinIfFrameType", frame.Type.String()))
		channel.AddSubContainer(cfg)
	}
	return channel
}

func (b *Builder) buildLin(networks []*model.LINNetwork) (*model.ModuleConfiguration, error) {
	defRef, err := b.moduleDefRef("Lin")
	if err != nil {
		return nil, err
	}
	mod := model.NewModuleConfiguration("Lin", "LIN Driver Configuration", defRef)

	general := model.NewContainer("LinGeneral", "LIN General Configuration", defRef+"/LinGeneral")
	general.AddParameter(model.NewBooleanParameter(
		"LinDevErrorDetect", "Development Error Detection",
		general.DefinitionRef+"/LinDevErrorDetect", true))
	mod.AddContainer(general)

	for _, network := range networks {
		channel := model.NewContainer("LinChannel_"+network.Name, "LIN Channel for "+network.Name, defRef+"/LinChannel")
		channel.AddParameter(model.NewIntegerParameter(
			"LinChannelBaudRate", "Baudrate", channel.DefinitionRef+"/LinChannelBaudRate", int64(network.Baudrate())))
		mod.AddContainer(channel)
	}
	return mod, nil
}
