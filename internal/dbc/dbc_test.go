package dbc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.einride.tech/can/pkg/descriptor"

	"github.com/autosar-community/ecucgen/internal/model"
)

const powertrainDBC = `VERSION ""

NS_ :
    NS_DESC_
    CM_
    BA_DEF_
    BA_
    VAL_
    CAT_DEF_
    CAT_
    FILTER
    BA_DEF_DEF_
    EV_DATA_
    ENVVAR_DATA_
    SGTYPE_
    SGTYPE_VAL_
    BA_DEF_SGTYPE_
    BA_SGTYPE_
    SIG_TYPE_REF_
    VAL_TABLE_
    SIG_GROUP_
    SIG_VALTYPE_
    SIGTYPE_VALTYPE_
    BO_TX_BU_
    BA_DEF_REL_
    BA_REL_
    BA_DEF_DEF_REL_
    BU_SG_REL_
    BU_EV_REL_
    BU_BO_REL_
    SG_MUL_VAL_

BS_:

BU_: ECU1 ECU2

BO_ 256 Powertrain_01: 8 ECU1
 SG_ EngineSpeed : 0|16@1+ (0.25,0) [0|16383.75] "rpm"  ECU2
 SG_ EngineTemp : 16|8@1+ (1,-40) [-40|215] "degC"  ECU2

BO_ 512 Body_01: 2 ECU2
 SG_ DoorStatus : 0|2@1+ (1,0) [0|3] ""  ECU1

CM_ BU_ ECU1 "Engine controller";
CM_ BO_ 256 "Engine data";
CM_ SG_ 256 EngineSpeed "Engine speed";
BA_DEF_ BO_  "GenMsgCycleTime" INT 0 0;
BA_DEF_DEF_  "GenMsgCycleTime" 0;
BA_ "GenMsgCycleTime" BO_ 256 100;
VAL_ 512 DoorStatus 0 "Closed" 1 "Open" 2 "Error" ;
`

func writeDBC(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDBC(t *testing.T) {
	db, err := Load(writeDBC(t, "powertrain.dbc", powertrainDBC))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if db.Name != "powertrain" {
		t.Errorf("Expected database name powertrain, got %s", db.Name)
	}
	if db.Baudrate != 500000 {
		t.Errorf("Expected default baudrate 500000, got %d", db.Baudrate)
	}
	if len(db.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(db.Nodes))
	}
	if db.Nodes[0].Name != "ECU1" || db.Nodes[0].Comment != "Engine controller" {
		t.Errorf("Unexpected node: %s (%q)", db.Nodes[0].Name, db.Nodes[0].Comment)
	}
	if len(db.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(db.Messages))
	}

	msg, ok := db.MessageByID(256)
	if !ok {
		t.Fatal("Expected message with ID 256")
	}
	if msg.Name != "Powertrain_01" {
		t.Errorf("Expected Powertrain_01, got %s", msg.Name)
	}
	if msg.DLC != 8 {
		t.Errorf("Expected DLC 8, got %d", msg.DLC)
	}
	if msg.IsExtended {
		t.Error("Expected a standard frame")
	}
	if msg.CycleTime != 100 {
		t.Errorf("Expected cycle time 100, got %d", msg.CycleTime)
	}
	if len(msg.Senders) != 1 || msg.Senders[0] != "ECU1" {
		t.Errorf("Expected sender ECU1, got %v", msg.Senders)
	}
	if !msg.IsTx() {
		t.Error("Expected a TX message")
	}
	if msg.Comment != "Engine data" {
		t.Errorf("Expected comment, got %q", msg.Comment)
	}

	speed, ok := msg.SignalByName("EngineSpeed")
	if !ok {
		t.Fatal("Expected signal EngineSpeed")
	}
	if speed.StartBit != 0 || speed.Length != 16 {
		t.Errorf("Expected 0|16, got %d|%d", speed.StartBit, speed.Length)
	}
	if speed.Factor != 0.25 || speed.Offset != 0 {
		t.Errorf("Expected factor 0.25 offset 0, got %v %v", speed.Factor, speed.Offset)
	}
	if got := speed.Decode(4000); got != 1000 {
		t.Errorf("Expected Decode(4000) = 1000, got %v", got)
	}
	if speed.Unit != "rpm" {
		t.Errorf("Expected unit rpm, got %q", speed.Unit)
	}
	if len(speed.Receivers) != 1 || speed.Receivers[0] != "ECU2" {
		t.Errorf("Expected receiver ECU2, got %v", speed.Receivers)
	}
	if speed.Comment != "Engine speed" {
		t.Errorf("Expected signal comment, got %q", speed.Comment)
	}

	temp, ok := msg.SignalByName("EngineTemp")
	if !ok {
		t.Fatal("Expected signal EngineTemp")
	}
	if got := temp.Decode(100); got != 60 {
		t.Errorf("Expected Decode(100) = 60, got %v", got)
	}

	body, ok := db.MessageByName("Body_01")
	if !ok {
		t.Fatal("Expected message Body_01")
	}
	door, ok := body.SignalByName("DoorStatus")
	if !ok {
		t.Fatal("Expected signal DoorStatus")
	}
	if len(door.ValueTable) != 3 {
		t.Fatalf("Expected 3 value table entries, got %d", len(door.ValueTable))
	}
	if door.ValueTable[0].Raw != 0 || door.ValueTable[0].Label != "Closed" {
		t.Errorf("Unexpected entry: %+v", door.ValueTable[0])
	}
	if door.ValueTable[2].Raw != 2 || door.ValueTable[2].Label != "Error" {
		t.Errorf("Unexpected entry: %+v", door.ValueTable[2])
	}
}

func TestFromDatabase(t *testing.T) {
	db := &descriptor.Database{
		Nodes: []*descriptor.Node{
			{Name: "Gateway", Description: "Central gateway"},
		},
		Messages: []*descriptor.Message{
			{
				Name:       "Multiplexed_01",
				ID:         0x300,
				Length:     8,
				SenderNode: "Gateway",
				Signals: []*descriptor.Signal{
					{Name: "MuxSelector", Start: 0, Length: 4, Scale: 1, IsMultiplexer: true},
					{Name: "ModeA", Start: 8, Length: 8, Scale: 1, IsMultiplexed: true, MultiplexerValue: 0},
					{Name: "ModeB", Start: 8, Length: 8, Scale: 1, IsMultiplexed: true, MultiplexerValue: 1},
				},
			},
			{
				Name:       "Extended_01",
				ID:         0x18FF50E5,
				IsExtended: true,
				Length:     8,
				CycleTime:  50 * time.Millisecond,
				Signals: []*descriptor.Signal{
					{
						Name: "Level", Start: 0, Length: 8, Scale: 1,
						IsSigned: true, IsBigEndian: true,
						Min: -100, Max: 100, Unit: "%", DefaultValue: 5,
						ValueDescriptions: []*descriptor.ValueDescription{
							{Value: 0, Description: "Idle"},
						},
					},
				},
			},
		},
	}

	cdb, err := FromDatabase("hand", db)
	if err != nil {
		t.Fatalf("FromDatabase error: %v", err)
	}

	ext, ok := cdb.MessageByID(0x18FF50E5)
	if !ok {
		t.Fatal("Expected message with ID 0x18FF50E5")
	}
	if !ext.IsExtended {
		t.Error("Expected an extended frame")
	}
	if ext.CycleTime != 50 {
		t.Errorf("Expected cycle time 50, got %d", ext.CycleTime)
	}
	level := ext.Signals[0]
	if level.ValueType != model.ValueTypeSigned {
		t.Errorf("Expected signed, got %s", level.ValueType)
	}
	if level.ByteOrder != model.ByteOrderBigEndian {
		t.Errorf("Expected big endian, got %s", level.ByteOrder)
	}
	if level.InitialValue != 5 {
		t.Errorf("Expected initial value 5, got %d", level.InitialValue)
	}
	if level.Min != -100 || level.Max != 100 {
		t.Errorf("Expected range [-100, 100], got [%v, %v]", level.Min, level.Max)
	}

	mux, ok := cdb.MessageByID(0x300)
	if !ok {
		t.Fatal("Expected message with ID 0x300")
	}
	selector, _ := mux.SignalByName("MuxSelector")
	if selector.Kind != model.SignalMultiplexer || selector.MultiplexIndicator != "M" {
		t.Errorf("Expected multiplexer M, got %s %q", selector.Kind, selector.MultiplexIndicator)
	}
	modeB, _ := mux.SignalByName("ModeB")
	if modeB.Kind != model.SignalMultiplexed || modeB.MultiplexIndicator != "m1" {
		t.Errorf("Expected multiplexed m1, got %s %q", modeB.Kind, modeB.MultiplexIndicator)
	}

	sent := cdb.MessagesBySender("Gateway")
	if len(sent) != 1 || sent[0].Name != "Multiplexed_01" {
		t.Errorf("Expected Multiplexed_01 from Gateway, got %v", sent)
	}
}

func TestFromDatabasePlaceholderSender(t *testing.T) {
	db := &descriptor.Database{
		Messages: []*descriptor.Message{
			{Name: "Orphan", ID: 0x100, Length: 8, SenderNode: "Vector__XXX"},
		},
	}
	cdb, err := FromDatabase("hand", db)
	if err != nil {
		t.Fatalf("FromDatabase error: %v", err)
	}
	msg, _ := cdb.MessageByID(0x100)
	if len(msg.Senders) != 0 {
		t.Errorf("Expected no senders, got %v", msg.Senders)
	}
	if msg.IsTx() {
		t.Error("Expected an RX-only message")
	}
}

func TestFromDatabaseRangeError(t *testing.T) {
	db := &descriptor.Database{
		Messages: []*descriptor.Message{
			{Name: "Bad", ID: 0x800, Length: 8},
		},
	}
	_, err := FromDatabase("bad", db)
	if err == nil {
		t.Fatal("Expected an error for an out-of-range standard ID")
	}
	var rerr *model.RangeError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected a RangeError, got %T", err)
	}
}

func TestLoadDBCExtension(t *testing.T) {
	_, err := Load("network.ldf")
	if err == nil {
		t.Fatal("Expected an error for a non-.dbc file")
	}
	var perr *model.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a ParseError, got %T", err)
	}
	if !strings.Contains(err.Error(), "Unsupported file extension") {
		t.Errorf("Unexpected message: %v", err)
	}
}

func TestLoadDBCMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.dbc"))
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	var perr *model.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a ParseError, got %T", err)
	}
}

func TestLoadDBCMalformed(t *testing.T) {
	_, err := Load(writeDBC(t, "broken.dbc", "BO_ not a valid dbc file"))
	if err == nil {
		t.Fatal("Expected an error for malformed content")
	}
	var perr *model.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a ParseError, got %T", err)
	}
}
