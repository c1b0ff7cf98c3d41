package uesave

import (
	"github.com/pboechat/uesave/models"
)

// defaultMaxDepth bounds Struct/Array<Struct> recursion so adversarial input
// cannot overflow the native call stack; see §9 "Recursive bounds."
const defaultMaxDepth = 64

const sentinelNone = "None"

// decoder carries the single cursor and options a read pass shares across
// the header and property codecs, the same role parseMsgFile's local
// variables played for the teacher's single-pass CFB walk.
type decoder struct {
	cur      *cursor
	debug    bool
	maxDepth int
}

func newDecoder(data []byte, opts options) *decoder {
	maxDepth := opts.maxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &decoder{cur: newCursor(data), debug: opts.debug, maxDepth: maxDepth}
}

// readProperties consumes a tagged property sequence until the "None"
// sentinel, per the state machine in §4.4. At the top level (depth 0) it
// also stops cleanly at the end of the buffer. Array<Struct> elements are
// read by readStructArrayElements instead.
func (d *decoder) readProperties(depth int) ([]models.Property, error) {
	if depth > d.maxDepth {
		return nil, newFormatError(d.cur.position(), "property nesting exceeds max depth %d", d.maxDepth)
	}
	var props []models.Property
	for {
		if depth == 0 && d.cur.remaining() == 0 {
			return props, nil
		}
		name, err := d.cur.readString()
		if err != nil {
			return nil, wrapFormatError(d.cur.position(), err)
		}
		if name == sentinelNone {
			return props, nil
		}
		prop, err := d.readProperty(name, depth)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
}

func (d *decoder) readProperty(name string, depth int) (models.Property, error) {
	c := d.cur
	typeName, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	size, err := c.readU32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	tag, err := c.readU32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	base := models.Base{PropName: name, PropTag: tag, PropSize: size}

	switch models.Kind(typeName) {
	case models.KindBool:
		return d.readBool(base)
	case models.KindByte:
		return d.readByte(base)
	case models.KindInt:
		return d.readInt(base)
	case models.KindInt64:
		return d.readInt64(base)
	case models.KindUInt64:
		return d.readUInt64(base)
	case models.KindFloat:
		return d.readFloat(base)
	case models.KindDouble:
		return d.readDouble(base)
	case models.KindStr:
		return d.readStr(base)
	case models.KindName:
		return d.readName(base)
	case models.KindObject:
		return d.readObject(base)
	case models.KindText:
		return d.readText(base)
	case models.KindArray:
		return d.readArray(base, depth)
	case models.KindStruct:
		return d.readStruct(base, depth)
	case models.KindMap:
		return d.readMap(base)
	default:
		return nil, newFormatError(c.position(), "unknown property kind %q for %q", typeName, name)
	}
}

func (d *decoder) readBool(base models.Base) (models.Property, error) {
	c := d.cur
	if base.PropSize != 0 {
		return nil, newFormatError(c.position(), "BoolProperty %q: expected size 0, got %d", base.PropName, base.PropSize)
	}
	v, err := c.readByte()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if _, err := c.readByte(); err != nil { // separator NUL
		return nil, wrapFormatError(c.position(), err)
	}
	return models.BoolProperty{Base: base, Value: v != 0}, nil
}

func (d *decoder) readByte(base models.Base) (models.Property, error) {
	c := d.cur
	enumName, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if _, err := c.readByte(); err != nil { // separator NUL
		return nil, wrapFormatError(c.position(), err)
	}
	if base.PropSize == 1 {
		v, err := c.readByte()
		if err != nil {
			return nil, wrapFormatError(c.position(), err)
		}
		return models.ByteProperty{Base: base, EnumName: enumName, Value: v}, nil
	}
	member, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.ByteProperty{Base: base, EnumName: enumName, Value: member}, nil
}

func (d *decoder) readInt(base models.Base) (models.Property, error) {
	c := d.cur
	if base.PropSize != 4 {
		return nil, newFormatError(c.position(), "IntProperty %q: expected size 4, got %d", base.PropName, base.PropSize)
	}
	v, err := c.readI32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	trailing, err := c.readByte()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.IntProperty{Base: base, Value: v, TrailingByte: trailing}, nil
}

func (d *decoder) readInt64(base models.Base) (models.Property, error) {
	c := d.cur
	if base.PropSize != 8 {
		return nil, newFormatError(c.position(), "Int64Property %q: expected size 8, got %d", base.PropName, base.PropSize)
	}
	v, err := c.readI64()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.Int64Property{Base: base, Value: v}, nil
}

func (d *decoder) readUInt64(base models.Base) (models.Property, error) {
	c := d.cur
	if base.PropSize != 8 {
		return nil, newFormatError(c.position(), "UInt64Property %q: expected size 8, got %d", base.PropName, base.PropSize)
	}
	v, err := c.readU64()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.UInt64Property{Base: base, Value: v}, nil
}

func (d *decoder) readFloat(base models.Base) (models.Property, error) {
	c := d.cur
	if base.PropSize != 4 {
		return nil, newFormatError(c.position(), "FloatProperty %q: expected size 4, got %d", base.PropName, base.PropSize)
	}
	v, err := c.readF32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.FloatProperty{Base: base, Value: v}, nil
}

func (d *decoder) readDouble(base models.Base) (models.Property, error) {
	c := d.cur
	if base.PropSize != 8 {
		return nil, newFormatError(c.position(), "DoubleProperty %q: expected size 8, got %d", base.PropName, base.PropSize)
	}
	v, err := c.readF64()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.DoubleProperty{Base: base, Value: v}, nil
}

func (d *decoder) readStr(base models.Base) (models.Property, error) {
	c := d.cur
	if _, err := c.readByte(); err != nil { // separator NUL
		return nil, wrapFormatError(c.position(), err)
	}
	v, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.StrProperty{Base: base, Value: v}, nil
}

func (d *decoder) readName(base models.Base) (models.Property, error) {
	c := d.cur
	if _, err := c.readByte(); err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	v, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.NameProperty{Base: base, Value: v}, nil
}

func (d *decoder) readObject(base models.Base) (models.Property, error) {
	c := d.cur
	if _, err := c.readByte(); err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	v, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return models.ObjectProperty{Base: base, Value: v}, nil
}

func (d *decoder) readText(base models.Base) (models.Property, error) {
	c := d.cur
	raw, err := c.readBytes(int(base.PropSize))
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if _, err := c.readByte(); err != nil { // trailing NUL
		return nil, wrapFormatError(c.position(), err)
	}
	return models.TextProperty{Base: base, Value: raw}, nil
}

func (d *decoder) readArray(base models.Base, depth int) (models.Property, error) {
	c := d.cur
	innerType, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if _, err := c.readByte(); err != nil { // separator NUL
		return nil, wrapFormatError(c.position(), err)
	}
	count, err := c.readU32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}

	var values any
	switch models.Kind(innerType) {
	case models.KindByte:
		if base.PropSize < 4 {
			return nil, newFormatError(c.position(), "ArrayProperty<Byte> %q: size %d too small", base.PropName, base.PropSize)
		}
		raw, err := c.readBytes(int(base.PropSize - 4))
		if err != nil {
			return nil, wrapFormatError(c.position(), err)
		}
		values = raw
	case models.KindStr, models.KindName:
		out := make([]string, 0, count)
		for i := uint32(0); i < count; i++ {
			s, err := c.readString()
			if err != nil {
				return nil, wrapFormatError(c.position(), err)
			}
			out = append(out, s)
		}
		values = out
	case models.KindInt:
		out := make([]int32, 0, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.readI32()
			if err != nil {
				return nil, wrapFormatError(c.position(), err)
			}
			out = append(out, v)
		}
		values = out
	case models.KindFloat:
		out := make([]float32, 0, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.readF32()
			if err != nil {
				return nil, wrapFormatError(c.position(), err)
			}
			out = append(out, v)
		}
		values = out
	case models.KindStruct:
		elems, err := d.readStructArrayElements(count, base.PropSize, depth)
		if err != nil {
			return nil, err
		}
		values = elems
	default:
		raw, err := c.readBytes(int(base.PropSize))
		if err != nil {
			return nil, wrapFormatError(c.position(), err)
		}
		values = raw
	}

	return models.ArrayProperty{Base: base, InnerType: innerType, Count: count, Values: values}, nil
}

// readStructArrayElements reads the Struct elements of an
// ArrayProperty<StructProperty>, bounded by the byte region propSize covers
// from the current cursor position (mirroring original_source's
// `end_offset = offset + prop_size` loop) rather than by count: a real
// array-of-struct payload carries a trailing "None" sentinel after its
// elements, and that sentinel can arrive before the declared count is
// reached. Reading until the region's end (or an early "None") - instead of
// stopping the instant count elements have been read - guarantees the
// sentinel itself is always consumed, so the writer's matching unconditional
// "None" (see writeArrayBody) round-trips correctly. count is kept only as a
// capacity hint for the returned slice.
func (d *decoder) readStructArrayElements(count, propSize uint32, depth int) ([]models.Property, error) {
	if depth+1 > d.maxDepth {
		return nil, newFormatError(d.cur.position(), "array-of-struct nesting exceeds max depth %d", d.maxDepth)
	}
	end := d.cur.position() + int(propSize)
	elems := make([]models.Property, 0, count)
	for d.cur.position() < end {
		if d.cur.remaining() == 0 {
			break
		}
		name, err := d.cur.readString()
		if err != nil {
			return nil, wrapFormatError(d.cur.position(), err)
		}
		if name == sentinelNone {
			break
		}
		prop, err := d.readProperty(name, depth+1)
		if err != nil {
			return nil, err
		}
		elems = append(elems, prop)
	}
	return elems, nil
}

var wellKnownStructSizes = map[string]uint32{
	"Quat":     16,
	"Vector":   12,
	"DateTime": 8,
	"Guid":     16,
}

func (d *decoder) readStruct(base models.Base, depth int) (models.Property, error) {
	c := d.cur
	structType, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	guid, err := c.readGUID()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if _, err := c.readByte(); err != nil { // separator NUL
		return nil, wrapFormatError(c.position(), err)
	}

	if expected, ok := wellKnownStructSizes[structType]; ok && base.PropSize == expected {
		fields, err := d.readWellKnownStructFields(structType)
		if err != nil {
			return nil, err
		}
		return models.StructProperty{Base: base, StructType: structType, StructGUID: guid, Fields: fields}, nil
	}

	if depth+1 > d.maxDepth {
		return nil, newFormatError(c.position(), "struct nesting exceeds max depth %d", d.maxDepth)
	}
	fields, err := d.readProperties(depth + 1)
	if err != nil {
		return nil, err
	}
	return models.StructProperty{Base: base, StructType: structType, StructGUID: guid, Fields: fields}, nil
}

// readWellKnownStructFields decodes the fixed-width wire layout for Quat,
// Vector, DateTime and Guid into synthetic leaf properties, per §4.4. These
// never recurse and do not consume a "None" sentinel.
func (d *decoder) readWellKnownStructFields(structType string) ([]models.Property, error) {
	c := d.cur
	switch structType {
	case "Quat":
		names := [4]string{"X", "Y", "Z", "W"}
		fields := make([]models.Property, 4)
		for i, n := range names {
			v, err := c.readF32()
			if err != nil {
				return nil, wrapFormatError(c.position(), err)
			}
			fields[i] = models.FloatProperty{Base: models.Base{PropName: n}, Value: v}
		}
		return fields, nil
	case "Vector":
		names := [3]string{"X", "Y", "Z"}
		fields := make([]models.Property, 3)
		for i, n := range names {
			v, err := c.readF32()
			if err != nil {
				return nil, wrapFormatError(c.position(), err)
			}
			fields[i] = models.FloatProperty{Base: models.Base{PropName: n}, Value: v}
		}
		return fields, nil
	case "DateTime":
		v, err := c.readI64()
		if err != nil {
			return nil, wrapFormatError(c.position(), err)
		}
		return []models.Property{models.Int64Property{Base: models.Base{PropName: "Ticks"}, Value: v}}, nil
	case "Guid":
		raw, err := c.readBytes(16)
		if err != nil {
			return nil, wrapFormatError(c.position(), err)
		}
		return []models.Property{models.NameProperty{Base: models.Base{PropName: "Value"}, Value: formatGUID(raw)}}, nil
	}
	return nil, newFormatError(c.position(), "unreachable well-known struct type %q", structType)
}

func (d *decoder) readMap(base models.Base) (models.Property, error) {
	c := d.cur
	keyType, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	valueType, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if _, err := c.readByte(); err != nil { // separator NUL
		return nil, wrapFormatError(c.position(), err)
	}
	mapSize, err := c.readU32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if base.PropSize < 5 {
		return nil, newFormatError(c.position(), "MapProperty %q: size %d too small", base.PropName, base.PropSize)
	}
	raw, err := c.readBytes(int(base.PropSize - 5))
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	if _, err := c.readByte(); err != nil { // trailing NUL
		return nil, wrapFormatError(c.position(), err)
	}
	return models.MapProperty{Base: base, KeyType: keyType, ValueType: valueType, MapSize: mapSize, Raw: raw}, nil
}
