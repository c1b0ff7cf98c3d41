package uesave

import (
	"fmt"

	"github.com/pboechat/uesave/models"
)

// writeProperties emits a tagged property sequence followed by the "None"
// sentinel, the exact inverse of decoder.readProperties for the top-level
// list and for any Struct's nested field list (§4.4 "Writer obligations").
func writeProperties(w *writer, props []models.Property) error {
	for _, p := range props {
		if err := writeProperty(w, p); err != nil {
			return err
		}
	}
	w.writeString(sentinelNone)
	return nil
}

func writeProperty(w *writer, p models.Property) error {
	w.writeString(p.Name())
	w.writeString(string(p.Kind()))

	body := newWriter()
	if err := writeBody(body, p); err != nil {
		return fmt.Errorf("property %q: %w", p.Name(), err)
	}

	size := computeWireSize(p, body.bytes())
	w.writeU32(size)
	w.writeU32(p.Tag())
	w.writeBytes(body.bytes())
	return nil
}

// computeWireSize recomputes the reported size field for kinds whose
// on-wire size must track the body rather than replaying whatever was
// stored on read (§3 "size must be recomputed ... before serialization of
// variable-length kinds"). Fixed-width leaf kinds simply report their fixed
// width; Bool always reports 0.
func computeWireSize(p models.Property, body []byte) uint32 {
	switch v := p.(type) {
	case models.BoolProperty:
		return 0
	case models.ByteProperty:
		if _, ok := v.Value.(byte); ok {
			return 1
		}
		if member, ok := v.Value.(string); ok {
			return uint32(len(encodeFStringBody(member)))
		}
		return 0
	case models.IntProperty:
		return 4
	case models.Int64Property:
		return 8
	case models.UInt64Property:
		return 8
	case models.FloatProperty:
		return 4
	case models.DoubleProperty:
		return 8
	case models.StrProperty, models.NameProperty, models.ObjectProperty:
		return uint32(len(body)) - 1
	case models.TextProperty:
		return uint32(len(v.Value))
	case models.ArrayProperty:
		return arrayWireSize(v, body)
	case models.StructProperty:
		return structWireSize(v, body)
	case models.MapProperty:
		return 5 + uint32(len(v.Raw))
	}
	return uint32(len(body))
}

// arrayWireSize reports the value of the size field for an ArrayProperty,
// following the on-wire convention each inner type's reader actually
// consumes:
//   - ByteProperty follows the Array<Byte> invariant made explicit in §3
//     ("element payload length equals prop_size − 4"): size covers the u32
//     count field plus the element bytes.
//   - StrProperty/NameProperty/IntProperty/FloatProperty elements are
//     counted purely by the count field on read, so size is reported the
//     same count-inclusive way for consistency.
//   - StructProperty elements are bounded by a byte region measured from
//     *after* the count field (readStructArrayElements' end_offset,
//     mirroring original_source's `end_offset = offset_after_count +
//     prop_size`), so size must exclude the count field's 4 bytes here.
//   - Opaque inner types (readArray's default case) consume exactly
//     prop_size raw bytes with the count field already behind them, so size
//     is the raw payload length alone - reporting the count-inclusive
//     figure would make the next read over-consume by 4 bytes.
func arrayWireSize(v models.ArrayProperty, body []byte) uint32 {
	headerLen := len(encodeFStringBody(v.InnerType)) + 1 // inner_type FString + separator NUL
	switch models.Kind(v.InnerType) {
	case models.KindByte, models.KindStr, models.KindName, models.KindInt, models.KindFloat:
		return uint32(len(body) - headerLen)
	case models.KindStruct:
		return uint32(len(body) - headerLen - 4)
	default:
		if raw, ok := v.Values.([]byte); ok {
			return uint32(len(raw))
		}
		return uint32(len(body) - headerLen - 4)
	}
}

// structWireSize reports the size of a StructProperty's value payload: for
// well-known layouts that's their fixed width, otherwise it's the already-
// written body minus the struct_type FString + 16-byte GUID + separator NUL
// that precede the field list within it.
func structWireSize(v models.StructProperty, body []byte) uint32 {
	if expected, ok := wellKnownStructSizes[v.StructType]; ok {
		return expected
	}
	headerLen := len(encodeFStringBody(v.StructType)) + 16 + 1
	return uint32(len(body) - headerLen)
}

func writeBody(w *writer, p models.Property) error {
	switch v := p.(type) {
	case models.BoolProperty:
		if v.Value {
			w.writeByte(1)
		} else {
			w.writeByte(0)
		}
		w.writeByte(0)
		return nil
	case models.ByteProperty:
		w.writeString(v.EnumName)
		w.writeByte(0)
		switch val := v.Value.(type) {
		case byte:
			w.writeByte(val)
		case string:
			w.writeString(val)
		default:
			return fmt.Errorf("ByteProperty %q: unsupported value type %T", v.Name(), v.Value)
		}
		return nil
	case models.IntProperty:
		w.writeI32(v.Value)
		w.writeByte(v.TrailingByte)
		return nil
	case models.Int64Property:
		w.writeI64(v.Value)
		return nil
	case models.UInt64Property:
		w.writeU64(v.Value)
		return nil
	case models.FloatProperty:
		w.writeF32(v.Value)
		return nil
	case models.DoubleProperty:
		w.writeF64(v.Value)
		return nil
	case models.StrProperty:
		w.writeByte(0)
		w.writeString(v.Value)
		return nil
	case models.NameProperty:
		w.writeByte(0)
		w.writeString(v.Value)
		return nil
	case models.ObjectProperty:
		w.writeByte(0)
		w.writeString(v.Value)
		return nil
	case models.TextProperty:
		w.writeBytes(v.Value)
		w.writeByte(0)
		return nil
	case models.ArrayProperty:
		return writeArrayBody(w, v)
	case models.StructProperty:
		return writeStructBody(w, v)
	case models.MapProperty:
		return writeMapBody(w, v)
	}
	return fmt.Errorf("unsupported property kind %T", p)
}

func writeArrayBody(w *writer, v models.ArrayProperty) error {
	w.writeString(v.InnerType)
	w.writeByte(0)
	w.writeU32(v.Count)

	switch models.Kind(v.InnerType) {
	case models.KindByte:
		raw, ok := v.Values.([]byte)
		if !ok {
			return fmt.Errorf("ArrayProperty %q: expected []byte values for ByteProperty inner type", v.Name())
		}
		w.writeBytes(raw)
	case models.KindStr, models.KindName:
		strs, ok := v.Values.([]string)
		if !ok {
			return fmt.Errorf("ArrayProperty %q: expected []string values", v.Name())
		}
		for _, s := range strs {
			w.writeString(s)
		}
	case models.KindInt:
		ints, ok := v.Values.([]int32)
		if !ok {
			return fmt.Errorf("ArrayProperty %q: expected []int32 values", v.Name())
		}
		for _, i := range ints {
			w.writeI32(i)
		}
	case models.KindFloat:
		floats, ok := v.Values.([]float32)
		if !ok {
			return fmt.Errorf("ArrayProperty %q: expected []float32 values", v.Name())
		}
		for _, f := range floats {
			w.writeF32(f)
		}
	case models.KindStruct:
		elems, ok := v.Values.([]models.Property)
		if !ok {
			return fmt.Errorf("ArrayProperty %q: expected []Property values for StructProperty inner type", v.Name())
		}
		for _, e := range elems {
			if err := writeProperty(w, e); err != nil {
				return err
			}
		}
		w.writeString(sentinelNone)
	default:
		raw, ok := v.Values.([]byte)
		if !ok {
			return fmt.Errorf("ArrayProperty %q: opaque inner type %q requires preserved []byte values", v.Name(), v.InnerType)
		}
		w.writeBytes(raw)
	}
	return nil
}

func writeStructBody(w *writer, v models.StructProperty) error {
	w.writeString(v.StructType)
	if err := w.writeGUID(v.StructGUID); err != nil {
		return fmt.Errorf("StructProperty %q: %w", v.Name(), err)
	}
	w.writeByte(0)

	if _, ok := wellKnownStructSizes[v.StructType]; ok {
		return writeWellKnownStructFields(w, v)
	}
	return writeProperties(w, v.Fields)
}

// writeWellKnownStructFields is the write-side counterpart to
// readWellKnownStructFields. Unlike the uesave reference this special-cases
// all four well-known types symmetrically (the reference only special-cases
// Quat/Vector on write and falls through to generic field serialization for
// DateTime/Guid, which does not reproduce their fixed-width wire layout).
func writeWellKnownStructFields(w *writer, v models.StructProperty) error {
	switch v.StructType {
	case "Quat", "Vector":
		for _, f := range v.Fields {
			fp, ok := f.(models.FloatProperty)
			if !ok {
				return fmt.Errorf("%s field %q: expected FloatProperty, got %T", v.StructType, f.Name(), f)
			}
			w.writeF32(fp.Value)
		}
		return nil
	case "DateTime":
		if len(v.Fields) != 1 {
			return fmt.Errorf("DateTime struct: expected exactly 1 field, got %d", len(v.Fields))
		}
		ip, ok := v.Fields[0].(models.Int64Property)
		if !ok {
			return fmt.Errorf("DateTime field %q: expected Int64Property, got %T", v.Fields[0].Name(), v.Fields[0])
		}
		w.writeI64(ip.Value)
		return nil
	case "Guid":
		if len(v.Fields) != 1 {
			return fmt.Errorf("Guid struct: expected exactly 1 field, got %d", len(v.Fields))
		}
		np, ok := v.Fields[0].(models.NameProperty)
		if !ok {
			return fmt.Errorf("Guid field %q: expected NameProperty, got %T", v.Fields[0].Name(), v.Fields[0])
		}
		raw, err := parseGUID(np.Value)
		if err != nil {
			return fmt.Errorf("Guid struct: %w", err)
		}
		w.writeBytes(raw[:])
		return nil
	}
	return fmt.Errorf("unreachable well-known struct type %q", v.StructType)
}

func writeMapBody(w *writer, v models.MapProperty) error {
	w.writeString(v.KeyType)
	w.writeString(v.ValueType)
	w.writeByte(0)
	w.writeU32(v.MapSize)
	w.writeBytes(v.Raw)
	w.writeByte(0)
	return nil
}
