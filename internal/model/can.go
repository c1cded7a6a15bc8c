package model

import (
	"math"

	"github.com/google/uuid"
)

const (
	MaxStandardFrameID uint32 = 0x7FF
	MaxExtendedFrameID uint32 = 0x1FFFFFFF

	DefaultCANBaudrate = 500000
)

type CANSignal struct {
	UUID               uuid.UUID
	Name               string
	StartBit           int
	Length             int
	ByteOrder          ByteOrder
	ValueType          ValueType
	Kind               SignalKind
	MultiplexIndicator string
	Factor             float64
	Offset             float64
	Min                float64
	Max                float64
	Unit               string
	InitialValue       int64
	ValueTable         []ValueTableEntry
	Receivers          []string
	Comment            string
}

// NewCANSignal checks the 64-bit layout bound up front; a signal that
// fails it never enters any collection.
func NewCANSignal(name string, startBit, length int, factor, offset float64) (*CANSignal, error) {
	if length < 1 || length > 64 {
		return nil, rangeErrorf(name, "Signal length must be 1-64 bits, got %d", length)
	}
	if startBit < 0 {
		return nil, rangeErrorf(name, "Signal start bit must be >= 0, got %d", startBit)
	}
	if startBit+length-1 > 63 {
		return nil, rangeErrorf(name, "Signal extends beyond message boundary: start_bit=%d, length=%d", startBit, length)
	}
	return &CANSignal{
		UUID:     uuid.New(),
		Name:     name,
		StartBit: startBit,
		Length:   length,
		Factor:   factor,
		Offset:   offset,
	}, nil
}

// Decode converts a raw bus value to its physical value.
func (s *CANSignal) Decode(raw int64) float64 {
	return float64(raw)*s.Factor + s.Offset
}

// Encode converts a physical value back to the nearest raw bus value.
func (s *CANSignal) Encode(physical float64) int64 {
	return int64(math.Round((physical - s.Offset) / s.Factor))
}

type CANMessage struct {
	UUID       uuid.UUID
	Name       string
	ID         uint32
	IsExtended bool
	DLC        int
	CycleTime  int // ms, 0 when unknown
	Senders    []string
	Comment    string
	Signals    []*CANSignal
}

// NewCANMessage gates the id against the format implied by the
// extended-frame flag.
func NewCANMessage(name string, id uint32, extended bool, dlc int) (*CANMessage, error) {
	if extended {
		if id > MaxExtendedFrameID {
			return nil, rangeErrorf(name, "Extended frame ID must be <= 0x1FFFFFFF, got 0x%X", id)
		}
	} else if id > MaxStandardFrameID {
		return nil, rangeErrorf(name, "Standard frame ID must be <= 0x7FF, got 0x%X", id)
	}
	if dlc < 0 || dlc > 8 {
		return nil, rangeErrorf(name, "Message DLC must be 0-8, got %d", dlc)
	}
	return &CANMessage{
		UUID:       uuid.New(),
		Name:       name,
		ID:         id,
		IsExtended: extended,
		DLC:        dlc,
	}, nil
}

func (m *CANMessage) AddSignal(s *CANSignal) {
	m.Signals = append(m.Signals, s)
}

func (m *CANMessage) SignalByName(name string) (*CANSignal, bool) {
	for _, s := range m.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// IsTx reports whether any node transmits this message. Every message is
// treated as receivable.
func (m *CANMessage) IsTx() bool { return len(m.Senders) > 0 }

type CANNode struct {
	UUID    uuid.UUID
	Name    string
	Comment string
}

func NewCANNode(name string) *CANNode {
	return &CANNode{UUID: uuid.New(), Name: name}
}

type CANDatabase struct {
	UUID     uuid.UUID
	Name     string
	Baudrate int
	Messages []*CANMessage
	Nodes    []*CANNode
}

func NewCANDatabase(name string) *CANDatabase {
	return &CANDatabase{UUID: uuid.New(), Name: name, Baudrate: DefaultCANBaudrate}
}

func (d *CANDatabase) AddMessage(m *CANMessage) {
	d.Messages = append(d.Messages, m)
}

func (d *CANDatabase) AddNode(n *CANNode) {
	d.Nodes = append(d.Nodes, n)
}

func (d *CANDatabase) MessageByID(id uint32) (*CANMessage, bool) {
	for _, m := range d.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

func (d *CANDatabase) MessageByName(name string) (*CANMessage, bool) {
	for _, m := range d.Messages {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

func (d *CANDatabase) MessagesBySender(node string) []*CANMessage {
	var out []*CANMessage
	for _, m := range d.Messages {
		for _, s := range m.Senders {
			if s == node {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// SignalCount sums the signals over all messages.
func (d *CANDatabase) SignalCount() int {
	n := 0
	for _, m := range d.Messages {
		n += len(m.Signals)
	}
	return n
}
