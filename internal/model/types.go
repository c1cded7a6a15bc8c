package model

import "strconv"

type ByteOrder int

const (
	ByteOrderLittleEndian ByteOrder = iota
	ByteOrderBigEndian
)

func (o ByteOrder) String() string {
	if o == ByteOrderBigEndian {
		return "big_endian"
	}
	return "little_endian"
}

type ValueType int

const (
	ValueTypeUnsigned ValueType = iota
	ValueTypeSigned
	ValueTypeFloat
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeSigned:
		return "signed"
	case ValueTypeFloat:
		return "float"
	default:
		return "unsigned"
	}
}

type SignalKind int

const (
	SignalStandard SignalKind = iota
	SignalMultiplexer
	SignalMultiplexed
)

func (k SignalKind) String() string {
	switch k {
	case SignalMultiplexer:
		return "multiplexer"
	case SignalMultiplexed:
		return "multiplexed"
	default:
		return "standard"
	}
}

// ValueTableEntry maps one raw value to a human-readable label.
type ValueTableEntry struct {
	Raw   int64
	Label string
}

type MetaKind int

const (
	MetaKindString MetaKind = iota
	MetaKindInt
	MetaKindFloat
	MetaKindBool
)

// MetaValue is one entry of a metadata bag: a closed set of primitive
// kinds, fixed at construction.
type MetaValue struct {
	kind MetaKind
	s    string
	i    int64
	f    float64
	b    bool
}

func MetaString(v string) MetaValue { return MetaValue{kind: MetaKindString, s: v} }

func MetaInt(v int64) MetaValue { return MetaValue{kind: MetaKindInt, i: v} }

func MetaFloat(v float64) MetaValue { return MetaValue{kind: MetaKindFloat, f: v} }

func MetaBool(v bool) MetaValue { return MetaValue{kind: MetaKindBool, b: v} }

func (m MetaValue) Kind() MetaKind { return m.kind }

func (m MetaValue) StringValue() (string, bool) { return m.s, m.kind == MetaKindString }

func (m MetaValue) IntValue() (int64, bool) { return m.i, m.kind == MetaKindInt }

func (m MetaValue) FloatValue() (float64, bool) { return m.f, m.kind == MetaKindFloat }

func (m MetaValue) BoolValue() (bool, bool) { return m.b, m.kind == MetaKindBool }

// Text renders the value in its literal text form regardless of kind.
func (m MetaValue) Text() string {
	switch m.kind {
	case MetaKindInt:
		return strconv.FormatInt(m.i, 10)
	case MetaKindFloat:
		return strconv.FormatFloat(m.f, 'g', -1, 64)
	case MetaKindBool:
		return strconv.FormatBool(m.b)
	default:
		return m.s
	}
}
