package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

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
`

const doorBusLDF = `
LIN_description_file;
LIN_protocol_version = "2.1";
LIN_language_version = "2.1";
LIN_speed = 19.2 kbps;

Nodes {
    Master: ECU_Master, 5 ms, 0.1 ms;
    Slaves: Door_Slave, Window_Slave;
}

Signals {
    DoorStatus: 8, 0, ECU_Master, Door_Slave;
    WindowPosition: 16, 0, Window_Slave, ECU_Master;
    LockCommand: 1, 0, ECU_Master, Door_Slave, Window_Slave;
}

Frames {
    DoorFrame: 0x10, Door_Slave, 2 {
        DoorStatus, 0;
    }
    WindowFrame: 0x11, Window_Slave, 4 {
        WindowPosition, 0;
        LockCommand, 16;
    }
    MasterFrame: 0x3C, ECU_Master, 1 {
        LockCommand, 0;
    }
}
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// duplicateIDDatabase trips the duplicate-message-ID check.
func duplicateIDDatabase(t *testing.T) *model.CANDatabase {
	t.Helper()
	db := model.NewCANDatabase("broken")
	for _, name := range []string{"First", "Second"} {
		msg, err := model.NewCANMessage(name, 0x100, false, 8)
		if err != nil {
			t.Fatalf("NewCANMessage error: %v", err)
		}
		db.AddMessage(msg)
	}
	return db
}

func TestNewDefaults(t *testing.T) {
	s := New("")
	assert.Equal(t, model.AutosarVersion422, s.Version())

	s = New(model.AutosarVersion450)
	assert.Equal(t, model.AutosarVersion450, s.Version())
}

func TestLoadDispatch(t *testing.T) {
	s := New("")

	err := s.Load(writeFixture(t, "powertrain.dbc", powertrainDBC), "")
	assert.NoError(t, err)
	err = s.Load(writeFixture(t, "door_bus.ldf", doorBusLDF), "")
	assert.NoError(t, err)

	cans := s.CANNetworks()
	if assert.Len(t, cans, 1) {
		assert.Equal(t, "powertrain", cans[0].Name)
	}
	lins := s.LINNetworks()
	if assert.Len(t, lins, 1) {
		assert.Equal(t, "door_bus", lins[0].Name)
	}
	assert.Len(t, s.SourceFiles(), 2)
	assert.True(t, filepath.IsAbs(s.SourceFiles()[0]), "source files are stored as absolute paths")
}

func TestLoadUnsupportedExtension(t *testing.T) {
	s := New("")
	err := s.Load("matrix.txt", "")
	var perr *model.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a ParseError, got %T", err)
	}
	assert.Contains(t, err.Error(), "Expected one of: .dbc, .ldf, .xlsx")
	assert.Empty(t, s.SourceFiles(), "a failed load must not register a source file")
}

func TestLoadRename(t *testing.T) {
	s := New("")
	db, err := s.LoadDBC(writeFixture(t, "powertrain.dbc", powertrainDBC), "Body")
	if err != nil {
		t.Fatalf("LoadDBC error: %v", err)
	}
	assert.Equal(t, "Body", db.Name)

	_, ok := s.CANNetwork("Body")
	assert.True(t, ok, "network is registered under the override name")
	_, ok = s.CANNetwork("powertrain")
	assert.False(t, ok)
}

func TestLoadReplaceKeepsOrder(t *testing.T) {
	s := New("")
	if _, err := s.LoadDBC(writeFixture(t, "first.dbc", powertrainDBC), "alpha"); err != nil {
		t.Fatalf("LoadDBC error: %v", err)
	}
	if _, err := s.LoadDBC(writeFixture(t, "second.dbc", powertrainDBC), "beta"); err != nil {
		t.Fatalf("LoadDBC error: %v", err)
	}
	reloaded, err := s.LoadDBC(writeFixture(t, "third.dbc", powertrainDBC), "alpha")
	if err != nil {
		t.Fatalf("LoadDBC error: %v", err)
	}

	cans := s.CANNetworks()
	if assert.Len(t, cans, 2) {
		assert.Equal(t, "alpha", cans[0].Name)
		assert.Equal(t, "beta", cans[1].Name)
		assert.Same(t, reloaded, cans[0], "reloading a name replaces the network in place")
	}
	assert.Len(t, s.SourceFiles(), 3)
}

func TestValidate(t *testing.T) {
	s := New("")
	if err := s.Load(writeFixture(t, "powertrain.dbc", powertrainDBC), ""); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := s.Load(writeFixture(t, "door_bus.ldf", doorBusLDF), ""); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	diags, err := s.Validate()
	assert.NoError(t, err)
	assert.Empty(t, diags)
}

func TestValidateFailure(t *testing.T) {
	s := New("")
	s.addCAN(duplicateIDDatabase(t))

	diags, err := s.Validate()
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a ValidationError, got %T", err)
	}
	assert.Contains(t, err.Error(), "Duplicate CAN message ID")
	assert.NotEmpty(t, diags)
}

func TestSummary(t *testing.T) {
	s := New("")
	if err := s.Load(writeFixture(t, "powertrain.dbc", powertrainDBC), ""); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := s.Load(writeFixture(t, "door_bus.ldf", doorBusLDF), ""); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, err := s.GenerateProject("Gateway", "GatewayEcu", []string{"Can"}); err != nil {
		t.Fatalf("GenerateProject error: %v", err)
	}

	summary := s.Summary()
	assert.Equal(t, "4.2.2", summary.AutosarVersion)
	assert.Equal(t, 2, summary.SourceFiles)
	assert.Equal(t, 1, summary.CANNetworks)
	assert.Equal(t, 1, summary.LINNetworks)
	assert.Equal(t, 1, summary.EcuConfigs)

	can, ok := summary.Networks["powertrain"]
	if !ok {
		t.Fatal("Expected a summary entry for powertrain")
	}
	assert.Equal(t, NetworkSummary{
		Type:     "CAN",
		Baudrate: 500000,
		Messages: 2,
		Signals:  3,
		Nodes:    2,
	}, can)

	lin, ok := summary.Networks["door_bus"]
	if !ok {
		t.Fatal("Expected a summary entry for door_bus")
	}
	assert.Equal(t, NetworkSummary{
		Type:     "LIN",
		Baudrate: 19200,
		Frames:   3,
		Signals:  4,
		Nodes:    3,
	}, lin, "LIN signal count sums the placed frame signals")
}

func TestGenerateAndWrite(t *testing.T) {
	s := New("")
	if err := s.Load(writeFixture(t, "powertrain.dbc", powertrainDBC), ""); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	project, err := s.GenerateProject("Gateway", "GatewayEcu", nil)
	if err != nil {
		t.Fatalf("GenerateProject error: %v", err)
	}
	assert.Equal(t, "Gateway", project.Name)
	assert.Equal(t, "GatewayEcu", project.EcuInstance)
	assert.Len(t, project.SourceFiles, 1)

	stored, ok := s.ProjectByName("Gateway")
	assert.True(t, ok)
	assert.Same(t, project, stored)

	out := filepath.Join(t.TempDir(), "generated", "gateway.arxml")
	if err := s.WriteProject("Gateway", out); err != nil {
		t.Fatalf("WriteProject error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	text := string(data)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, text, "<ECUC-VALUE-COLLECTION>")
	assert.Contains(t, text, "CanController_powertrain")
}

func TestWriteUnknownProject(t *testing.T) {
	s := New("")
	err := s.WriteProject("Ghost", filepath.Join(t.TempDir(), "ghost.arxml"))
	var gerr *model.GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("Expected a GenerationError, got %T", err)
	}
	assert.Contains(t, err.Error(), "unknown project 'Ghost'")
}

func TestGenerateValidationFailure(t *testing.T) {
	s := New("")
	s.addCAN(duplicateIDDatabase(t))

	project, err := s.GenerateProject("Gateway", "GatewayEcu", nil)
	assert.Nil(t, project)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a ValidationError, got %T", err)
	}
	_, ok := s.ProjectByName("Gateway")
	assert.False(t, ok, "a failed generation must not be stored")
}

func TestClear(t *testing.T) {
	s := New("")
	if err := s.Load(writeFixture(t, "powertrain.dbc", powertrainDBC), ""); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, err := s.GenerateProject("Gateway", "GatewayEcu", []string{"Can"}); err != nil {
		t.Fatalf("GenerateProject error: %v", err)
	}

	s.Clear()

	summary := s.Summary()
	assert.Equal(t, 0, summary.SourceFiles)
	assert.Equal(t, 0, summary.CANNetworks)
	assert.Equal(t, 0, summary.EcuConfigs)
	assert.Empty(t, summary.Networks)
	assert.Empty(t, s.CANNetworks())
}
