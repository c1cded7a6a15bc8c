// Package dbc loads CAN database files through the can-go compiler and
// maps the resulting descriptors onto the network model.
package dbc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.einride.tech/can/pkg/descriptor"
	"go.einride.tech/can/pkg/generate"

	"github.com/autosar-community/ecucgen/internal/logger"
	"github.com/autosar-community/ecucgen/internal/model"
)

// Load reads one .dbc file (case-insensitive extension) and maps it onto
// the CAN model. Compiler warnings are logged, not fatal; the network
// takes the file stem as its name.
func Load(path string) (*model.CANDatabase, error) {
	ext := filepath.Ext(path)
	if strings.ToLower(ext) != ".dbc" {
		return nil, &model.ParseError{
			File: path,
			Err:  fmt.Errorf("Unsupported file extension: %s. Expected one of: .dbc", ext),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}
	result, err := generate.Compile(path, data)
	if err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}
	for _, warning := range result.Warnings {
		logger.Warnf("%s: %v", path, warning)
	}
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	database, err := FromDatabase(stem, result.Database)
	if err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}
	return database, nil
}

// FromDatabase maps a compiled descriptor database onto the CAN model
// one record at a time. Frame IDs arrive already stripped of the
// extended-ID flag bit.
func FromDatabase(name string, db *descriptor.Database) (*model.CANDatabase, error) {
	database := model.NewCANDatabase(name)
	for _, node := range db.Nodes {
		n := model.NewCANNode(node.Name)
		n.Comment = node.Description
		database.AddNode(n)
	}
	for _, msg := range db.Messages {
		message, err := newMessage(msg)
		if err != nil {
			return nil, err
		}
		database.AddMessage(message)
	}
	return database, nil
}

func newMessage(def *descriptor.Message) (*model.CANMessage, error) {
	message, err := model.NewCANMessage(def.Name, def.ID, def.IsExtended, int(def.Length))
	if err != nil {
		return nil, err
	}
	message.CycleTime = int(def.CycleTime / time.Millisecond)
	message.Comment = def.Description
	// Vector__XXX is the DBC placeholder for an unspecified sender.
	if def.SenderNode != "" && def.SenderNode != "Vector__XXX" {
		message.Senders = []string{def.SenderNode}
	}
	for _, sig := range def.Signals {
		signal, err := newSignal(sig)
		if err != nil {
			return nil, err
		}
		message.AddSignal(signal)
	}
	return message, nil
}

func newSignal(def *descriptor.Signal) (*model.CANSignal, error) {
	signal, err := model.NewCANSignal(def.Name, int(def.Start), int(def.Length), def.Scale, def.Offset)
	if err != nil {
		return nil, err
	}
	if def.IsBigEndian {
		signal.ByteOrder = model.ByteOrderBigEndian
	}
	if def.IsSigned {
		signal.ValueType = model.ValueTypeSigned
	}
	switch {
	case def.IsMultiplexer:
		signal.Kind = model.SignalMultiplexer
		signal.MultiplexIndicator = "M"
	case def.IsMultiplexed:
		signal.Kind = model.SignalMultiplexed
		signal.MultiplexIndicator = fmt.Sprintf("m%d", def.MultiplexerValue)
	}
	signal.Min = def.Min
	signal.Max = def.Max
	signal.Unit = def.Unit
	signal.Comment = def.Description
	signal.InitialValue = int64(def.DefaultValue)
	signal.Receivers = append(signal.Receivers, def.ReceiverNodes...)
	for _, vd := range def.ValueDescriptions {
		signal.ValueTable = append(signal.ValueTable, model.ValueTableEntry{
			Raw:   vd.Value,
			Label: vd.Description,
		})
	}
	return signal, nil
}
