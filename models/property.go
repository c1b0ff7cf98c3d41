// Package models holds the data records that make up a decoded GVAS save
// file: the property tagged-sum, the header, and the save-file envelope
// around them. Nothing in this package touches a byte buffer directly -
// reading and writing live in the parent package, the same split the
// original MAPI property carrier (MessageEntryProperty) kept from its
// decoder.
package models

// Kind identifies which on-wire property variant a Property value is. It is
// also the literal type name Unreal writes for that property on the wire
// (e.g. "BoolProperty"), so Kind values double as the dispatch key used by
// the decoder/encoder.
type Kind string

const (
	KindBool   Kind = "BoolProperty"
	KindByte   Kind = "ByteProperty"
	KindInt    Kind = "IntProperty"
	KindInt64  Kind = "Int64Property"
	KindUInt64 Kind = "UInt64Property"
	KindFloat  Kind = "FloatProperty"
	KindDouble Kind = "DoubleProperty"
	KindStr    Kind = "StrProperty"
	KindName   Kind = "NameProperty"
	KindObject Kind = "ObjectProperty"
	KindText   Kind = "TextProperty"
	KindArray  Kind = "ArrayProperty"
	KindStruct Kind = "StructProperty"
	KindMap    Kind = "MapProperty"
)

// Property is the common interface every decoded property kind satisfies.
// Concrete variants embed Base for the name/tag/size triple that every
// property carries on the wire, regardless of kind.
type Property interface {
	Name() string
	Tag() uint32
	Size() uint32
	Kind() Kind
}

// Base carries the fields shared by every property record: the property
// name, the serialized size of its body, and the per-record opaque tag
// index. The meaning of Tag is engine-internal and not interpreted here; it
// is preserved verbatim for round-trip.
type Base struct {
	PropName string
	PropTag  uint32
	PropSize uint32
}

func (b Base) Name() string { return b.PropName }
func (b Base) Tag() uint32  { return b.PropTag }
func (b Base) Size() uint32 { return b.PropSize }

// BoolProperty stores its value in the tag byte on the wire; the reported
// size is always 0 regardless of the one value byte actually consumed.
type BoolProperty struct {
	Base
	Value bool
}

func (BoolProperty) Kind() Kind { return KindBool }

// ByteProperty is a scalar byte when Size()==1, or the name of an enum
// member otherwise (stored in Value as a string).
type ByteProperty struct {
	Base
	EnumName string
	Value    any // byte or string
}

func (ByteProperty) Kind() Kind { return KindByte }

// IntProperty preserves the mysterious trailing byte verbatim; its meaning
// is unclear (observed as both 0x00 and 0xFF in the wild) but it must
// survive round-trip unmodified.
type IntProperty struct {
	Base
	Value        int32
	TrailingByte byte
}

func (IntProperty) Kind() Kind { return KindInt }

type Int64Property struct {
	Base
	Value int64
}

func (Int64Property) Kind() Kind { return KindInt64 }

type UInt64Property struct {
	Base
	Value uint64
}

func (UInt64Property) Kind() Kind { return KindUInt64 }

type FloatProperty struct {
	Base
	Value float32
}

func (FloatProperty) Kind() Kind { return KindFloat }

type DoubleProperty struct {
	Base
	Value float64
}

func (DoubleProperty) Kind() Kind { return KindDouble }

type StrProperty struct {
	Base
	Value string
}

func (StrProperty) Kind() Kind { return KindStr }

type NameProperty struct {
	Base
	Value string
}

func (NameProperty) Kind() Kind { return KindName }

type ObjectProperty struct {
	Base
	Value string
}

func (ObjectProperty) Kind() Kind { return KindObject }

// TextProperty keeps Unreal's localization envelope opaque; Value is the
// raw body bytes (not the trailing NUL, which the codec re-adds on write).
type TextProperty struct {
	Base
	Value []byte
}

func (TextProperty) Kind() Kind { return KindText }

// ArrayProperty recurses through ArrayProperty<StructProperty> and is
// otherwise polymorphic on InnerType. Values holds one of:
//   - []byte            (InnerType == "ByteProperty")
//   - []string          (InnerType == "StrProperty" / "NameProperty")
//   - []int32           (InnerType == "IntProperty")
//   - []float32         (InnerType == "FloatProperty")
//   - []Property        (InnerType == "StructProperty")
//   - []byte (raw, opaque) for any other inner type, preserved for round-trip
type ArrayProperty struct {
	Base
	InnerType string
	Count     uint32
	Values    any
}

func (ArrayProperty) Kind() Kind { return KindArray }

// StructProperty recurses into a nested property sequence unless StructType
// names one of the well-known fixed-layout types (Quat, Vector, DateTime,
// Guid), in which case Fields holds synthetic leaf properties (X/Y/Z/W,
// Ticks, Value) that the codec derives the fixed-width wire bytes from
// directly rather than re-serializing them as tagged properties.
type StructProperty struct {
	Base
	StructType string
	StructGUID string
	Fields     []Property
}

func (StructProperty) Kind() Kind { return KindStruct }

// MapProperty entries are not interpreted; the raw body between the header
// and the trailing NUL is preserved opaque, per spec non-goals.
type MapProperty struct {
	Base
	KeyType   string
	ValueType string
	MapSize   uint32
	Raw       []byte
}

func (MapProperty) Kind() Kind { return KindMap }
