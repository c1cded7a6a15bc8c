package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCANSignalBoundary(t *testing.T) {
	cases := []struct {
		name     string
		startBit int
		length   int
		ok       bool
	}{
		{"fits exactly", 0, 64, true},
		{"last byte", 56, 8, true},
		{"single bit at end", 63, 1, true},
		{"crosses the 64-bit bound", 60, 16, false},
		{"one past the end", 57, 8, false},
		{"zero length", 0, 0, false},
		{"length too large", 0, 65, false},
		{"negative start", -1, 8, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewCANSignal("Sig", tc.startBit, tc.length, 1, 0)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.startBit, s.StartBit)
				assert.Equal(t, tc.length, s.Length)
			} else {
				require.Error(t, err)
				var rangeErr *RangeError
				assert.True(t, errors.As(err, &rangeErr), "expected RangeError, got %T", err)
			}
		})
	}
}

func TestNewCANSignalBoundaryMessage(t *testing.T) {
	_, err := NewCANSignal("Wide", 60, 16, 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beyond message boundary")
	assert.Contains(t, err.Error(), "Wide")
}

func TestCodecRoundTrip(t *testing.T) {
	cases := []struct {
		length int
		factor float64
		offset float64
	}{
		{1, 1, 0},
		{8, 1, -40},
		{12, 0.25, 0},
		{16, 0.01, 0},
		{16, 0.1, -273.15},
	}
	for _, tc := range cases {
		s, err := NewCANSignal("Sig", 0, tc.length, tc.factor, tc.offset)
		require.NoError(t, err)
		max := int64(1)<<tc.length - 1
		for raw := int64(0); raw <= max; raw++ {
			if got := s.Encode(s.Decode(raw)); got != raw {
				t.Fatalf("length=%d factor=%v offset=%v: round trip of %d gave %d",
					tc.length, tc.factor, tc.offset, raw, got)
			}
		}
	}
}

func ExampleCANSignal_Decode() {
	temp, _ := NewCANSignal("EngineTemp", 32, 8, 1, -40)
	fmt.Println(temp.Decode(100))
	fmt.Println(temp.Encode(60))
	// Output:
	// 60
	// 100
}

func TestNewCANMessageIDGating(t *testing.T) {
	_, err := NewCANMessage("Cruise", 0x800, false, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Standard frame ID must be <= 0x7FF")

	m, err := NewCANMessage("Cruise", 0x800, true, 8)
	require.NoError(t, err)
	assert.True(t, m.IsExtended)

	_, err = NewCANMessage("TooBig", 0x20000000, true, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Extended frame ID must be <= 0x1FFFFFFF")

	_, err = NewCANMessage("Fat", 0x100, false, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DLC must be 0-8")

	_, err = NewCANMessage("Empty", 0x100, false, 0)
	assert.NoError(t, err)
}

func TestCANDatabaseLookups(t *testing.T) {
	db := NewCANDatabase("powertrain")
	assert.Equal(t, DefaultCANBaudrate, db.Baudrate)

	engine, err := NewCANMessage("Engine_01", 0x100, false, 8)
	require.NoError(t, err)
	engine.Senders = []string{"ECM"}
	rpm, err := NewCANSignal("EngineSpeed", 0, 16, 0.25, 0)
	require.NoError(t, err)
	engine.AddSignal(rpm)

	body, err := NewCANMessage("Body_01", 0x200, false, 4)
	require.NoError(t, err)

	db.AddMessage(engine)
	db.AddMessage(body)
	db.AddNode(NewCANNode("ECM"))
	db.AddNode(NewCANNode("BCM"))

	m, ok := db.MessageByID(0x100)
	require.True(t, ok)
	assert.Equal(t, "Engine_01", m.Name)

	m, ok = db.MessageByName("Body_01")
	require.True(t, ok)
	assert.Equal(t, uint32(0x200), m.ID)

	_, ok = db.MessageByID(0x300)
	assert.False(t, ok)

	assert.Len(t, db.MessagesBySender("ECM"), 1)
	assert.Empty(t, db.MessagesBySender("BCM"))

	assert.True(t, engine.IsTx())
	assert.False(t, body.IsTx())

	sig, ok := engine.SignalByName("EngineSpeed")
	require.True(t, ok)
	assert.Equal(t, 0.25, sig.Factor)
	assert.Equal(t, 1, db.SignalCount())
}

func TestEntityIdentity(t *testing.T) {
	a, err := NewCANSignal("Same", 0, 8, 1, 0)
	require.NoError(t, err)
	b, err := NewCANSignal("Same", 0, 8, 1, 0)
	require.NoError(t, err)
	assert.NotEqual(t, a.UUID, b.UUID)
}
