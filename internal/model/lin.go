package model

import (
	"math"

	"github.com/google/uuid"
)

type LINNodeType int

const (
	LINMaster LINNodeType = iota
	LINSlave
)

func (t LINNodeType) String() string {
	if t == LINMaster {
		return "master"
	}
	return "slave"
}

type LINFrameType int

const (
	LINFrameUnconditional LINFrameType = iota
	LINFrameEventTriggered
	LINFrameSporadic
	LINFrameDiagnostic
)

func (t LINFrameType) String() string {
	switch t {
	case LINFrameEventTriggered:
		return "event_triggered"
	case LINFrameSporadic:
		return "sporadic"
	case LINFrameDiagnostic:
		return "diagnostic"
	default:
		return "unconditional"
	}
}

// Node Address for Diagnostics bounds.
const (
	MinNAD = 0x01
	MaxNAD = 0x7F
)

const (
	MaxLINFrameID uint32 = 0x3F

	DefaultLINSpeed = 19.2 // kbit/s
)

type LINSignal struct {
	UUID        uuid.UUID
	Name        string
	StartBit    int
	Length      int
	InitValue   int64
	Publisher   string
	Subscribers []string
	Factor      float64
	Offset      float64
}

// NewLINSignal checks the 64-bit layout bound up front, exactly like its
// CAN counterpart.
func NewLINSignal(name string, startBit, length int) (*LINSignal, error) {
	if length < 1 || length > 64 {
		return nil, rangeErrorf(name, "Signal length must be 1-64 bits, got %d", length)
	}
	if startBit < 0 {
		return nil, rangeErrorf(name, "Signal start bit must be >= 0, got %d", startBit)
	}
	if startBit+length-1 > 63 {
		return nil, rangeErrorf(name, "Signal extends beyond frame boundary: start_bit=%d, length=%d", startBit, length)
	}
	return &LINSignal{
		UUID:     uuid.New(),
		Name:     name,
		StartBit: startBit,
		Length:   length,
		Factor:   1,
	}, nil
}

// CopyAt returns a position-specific copy placed at startBit. Frames hold
// copies so the same declared signal can sit at different offsets in
// different frames without aliasing.
func (s *LINSignal) CopyAt(startBit int) (*LINSignal, error) {
	c, err := NewLINSignal(s.Name, startBit, s.Length)
	if err != nil {
		return nil, err
	}
	c.InitValue = s.InitValue
	c.Publisher = s.Publisher
	c.Subscribers = append([]string(nil), s.Subscribers...)
	c.Factor = s.Factor
	c.Offset = s.Offset
	return c, nil
}

func (s *LINSignal) Decode(raw int64) float64 {
	return float64(raw)*s.Factor + s.Offset
}

func (s *LINSignal) Encode(physical float64) int64 {
	return int64(math.Round((physical - s.Offset) / s.Factor))
}

type LINNode struct {
	UUID                uuid.UUID
	Name                string
	Type                LINNodeType
	Protocol            string
	ConfiguredNAD       int // 0 when unset
	InitialNAD          int // 0 when unset
	SupplierID          int
	FunctionID          int
	SupportsDiagnostics bool
}

func NewLINNode(name string, nodeType LINNodeType) *LINNode {
	return &LINNode{UUID: uuid.New(), Name: name, Type: nodeType, Protocol: "2.1"}
}

// SetNAD assigns the configured and initial node addresses; either may be
// 0 to stay unset.
func (n *LINNode) SetNAD(configured, initial int) error {
	if configured != 0 && (configured < MinNAD || configured > MaxNAD) {
		return rangeErrorf(n.Name, "Configured NAD must be 0x01-0x7F, got 0x%X", configured)
	}
	if initial != 0 && (initial < MinNAD || initial > MaxNAD) {
		return rangeErrorf(n.Name, "Initial NAD must be 0x01-0x7F, got 0x%X", initial)
	}
	n.ConfiguredNAD = configured
	n.InitialNAD = initial
	return nil
}

type LINFrame struct {
	UUID      uuid.UUID
	Name      string
	ID        uint32
	Publisher string
	Length    int // bytes
	Type      LINFrameType
	CycleTime float64 // ms, 0 when unscheduled
	Signals   []*LINSignal
}

func NewLINFrame(name string, id uint32, publisher string, length int) (*LINFrame, error) {
	if id > MaxLINFrameID {
		return nil, rangeErrorf(name, "LIN frame ID must be 0-63, got %d", id)
	}
	if length < 1 || length > 8 {
		return nil, rangeErrorf(name, "LIN frame length must be 1-8 bytes, got %d", length)
	}
	return &LINFrame{
		UUID:      uuid.New(),
		Name:      name,
		ID:        id,
		Publisher: publisher,
		Length:    length,
	}, nil
}

func (f *LINFrame) AddSignal(s *LINSignal) {
	f.Signals = append(f.Signals, s)
}

func (f *LINFrame) SignalByName(name string) (*LINSignal, bool) {
	for _, s := range f.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

type ScheduleEntry struct {
	FrameName string
	Delay     float64 // ms
	Position  int
}

type ScheduleTable struct {
	UUID    uuid.UUID
	Name    string
	Entries []ScheduleEntry
}

func NewScheduleTable(name string) *ScheduleTable {
	return &ScheduleTable{UUID: uuid.New(), Name: name}
}

// AddEntry appends a frame slot; position is the appearance index.
func (t *ScheduleTable) AddEntry(frameName string, delay float64) {
	t.Entries = append(t.Entries, ScheduleEntry{
		FrameName: frameName,
		Delay:     delay,
		Position:  len(t.Entries),
	})
}

// TotalDuration sums the slot delays in milliseconds.
func (t *ScheduleTable) TotalDuration() float64 {
	var total float64
	for _, e := range t.Entries {
		total += e.Delay
	}
	return total
}

// FrameCycleTime reports the repeat period of one frame. In a simple
// repeating schedule that is the table's total duration.
func (t *ScheduleTable) FrameCycleTime(frameName string) (float64, bool) {
	for _, e := range t.Entries {
		if e.FrameName == frameName {
			return t.TotalDuration(), true
		}
	}
	return 0, false
}

type LINNetwork struct {
	UUID            uuid.UUID
	Name            string
	ProtocolVersion string
	LanguageVersion string
	Speed           float64 // kbit/s
	Signals         []*LINSignal
	Frames          []*LINFrame
	Nodes           []*LINNode
	ScheduleTables  []*ScheduleTable
}

func NewLINNetwork(name string) *LINNetwork {
	return &LINNetwork{
		UUID:            uuid.New(),
		Name:            name,
		ProtocolVersion: "2.1",
		LanguageVersion: "2.1",
		Speed:           DefaultLINSpeed,
	}
}

// Baudrate converts the kbit/s speed into bit/s.
func (n *LINNetwork) Baudrate() int {
	return int(n.Speed * 1000)
}

func (n *LINNetwork) AddSignal(s *LINSignal) {
	n.Signals = append(n.Signals, s)
}

func (n *LINNetwork) AddFrame(f *LINFrame) {
	n.Frames = append(n.Frames, f)
}

func (n *LINNetwork) AddNode(node *LINNode) {
	n.Nodes = append(n.Nodes, node)
}

func (n *LINNetwork) AddScheduleTable(t *ScheduleTable) {
	n.ScheduleTables = append(n.ScheduleTables, t)
}

func (n *LINNetwork) SignalByName(name string) (*LINSignal, bool) {
	for _, s := range n.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

func (n *LINNetwork) FrameByID(id uint32) (*LINFrame, bool) {
	for _, f := range n.Frames {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

func (n *LINNetwork) FrameByName(name string) (*LINFrame, bool) {
	for _, f := range n.Frames {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (n *LINNetwork) FramesByPublisher(node string) []*LINFrame {
	var out []*LINFrame
	for _, f := range n.Frames {
		if f.Publisher == node {
			out = append(out, f)
		}
	}
	return out
}

func (n *LINNetwork) ScheduleTableByName(name string) (*ScheduleTable, bool) {
	for _, t := range n.ScheduleTables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

func (n *LINNetwork) Master() (*LINNode, bool) {
	for _, node := range n.Nodes {
		if node.Type == LINMaster {
			return node, true
		}
	}
	return nil, false
}

func (n *LINNetwork) Slaves() []*LINNode {
	var out []*LINNode
	for _, node := range n.Nodes {
		if node.Type == LINSlave {
			out = append(out, node)
		}
	}
	return out
}
