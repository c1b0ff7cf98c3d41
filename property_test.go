package uesave

import (
	"bytes"
	"testing"

	"github.com/pboechat/uesave/models"
)

// S6: BoolProperty decodes from and re-encodes to the exact 15 wire bytes.
func TestBoolProperty_WireBytes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeFStringBody("X"))
	buf.Write(encodeFStringBody(string(models.KindBool)))
	buf.Write(le32(0)) // size
	buf.Write(le32(0)) // tag
	buf.WriteByte(1)   // value
	buf.WriteByte(0)   // separator
	buf.Write(encodeFStringBody(sentinelNone))
	raw := buf.Bytes()

	d := newDecoder(raw, options{maxDepth: defaultMaxDepth})
	props, err := d.readProperties(0)
	if err != nil {
		t.Fatalf("readProperties: %v", err)
	}
	if len(props) != 1 {
		t.Fatalf("got %d properties, want 1", len(props))
	}
	b, ok := props[0].(models.BoolProperty)
	if !ok {
		t.Fatalf("got %T, want models.BoolProperty", props[0])
	}
	if b.Name() != "X" || !b.Value {
		t.Fatalf("got Bool{name:%q, value:%v}, want Bool{name:\"X\", value:true}", b.Name(), b.Value)
	}

	w := newWriter()
	if err := writeProperties(w, props); err != nil {
		t.Fatalf("writeProperties: %v", err)
	}
	if !bytes.Equal(w.bytes(), raw) {
		t.Fatalf("round trip mismatch:\n got  % x\n want % x", w.bytes(), raw)
	}
}

func decodeOneProperty(t *testing.T, raw []byte) models.Property {
	t.Helper()
	d := newDecoder(raw, options{maxDepth: defaultMaxDepth})
	props, err := d.readProperties(0)
	if err != nil {
		t.Fatalf("readProperties: %v", err)
	}
	if len(props) != 1 {
		t.Fatalf("got %d properties, want 1", len(props))
	}
	return props[0]
}

func roundTripProperties(t *testing.T, props []models.Property) []byte {
	t.Helper()
	w := newWriter()
	if err := writeProperties(w, props); err != nil {
		t.Fatalf("writeProperties: %v", err)
	}
	return w.bytes()
}

func TestIntProperty_PreservesTrailingByte(t *testing.T) {
	for _, trailing := range []byte{0x00, 0xff} {
		var buf bytes.Buffer
		buf.Write(encodeFStringBody("Count"))
		buf.Write(encodeFStringBody(string(models.KindInt)))
		buf.Write(le32(4))
		buf.Write(le32(0))
		buf.Write(le32(uint32(int32(-7))))
		buf.WriteByte(trailing)
		buf.Write(encodeFStringBody(sentinelNone))

		p := decodeOneProperty(t, buf.Bytes())
		ip, ok := p.(models.IntProperty)
		if !ok {
			t.Fatalf("got %T, want models.IntProperty", p)
		}
		if ip.Value != -7 || ip.TrailingByte != trailing {
			t.Fatalf("got Int{value:%d, trailing:%#x}, want Int{value:-7, trailing:%#x}", ip.Value, ip.TrailingByte, trailing)
		}

		out := roundTripProperties(t, []models.Property{p})
		if !bytes.Equal(out, buf.Bytes()) {
			t.Fatalf("round trip mismatch for trailing byte %#x:\n got  % x\n want % x", trailing, out, buf.Bytes())
		}
	}
}

func TestStrNameObjectProperty_RoundTrip(t *testing.T) {
	kinds := []models.Kind{models.KindStr, models.KindName, models.KindObject}
	for _, kind := range kinds {
		value := "/Game/Blueprints/MySave.MySave_C"
		fstr := encodeFStringBody(value)
		bodyStr := append([]byte{0x00}, fstr...)
		size := uint32(len(fstr)) // §3: size excludes the leading separator NUL

		var buf bytes.Buffer
		buf.Write(encodeFStringBody("Field"))
		buf.Write(encodeFStringBody(string(kind)))
		buf.Write(le32(size))
		buf.Write(le32(0))
		buf.Write(bodyStr)
		buf.Write(encodeFStringBody(sentinelNone))

		p := decodeOneProperty(t, buf.Bytes())
		out := roundTripProperties(t, []models.Property{p})
		if !bytes.Equal(out, buf.Bytes()) {
			t.Fatalf("%s round trip mismatch:\n got  % x\n want % x", kind, out, buf.Bytes())
		}
	}
}

func TestArrayPropertyOfInt_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeFStringBody("Values"))
	buf.Write(encodeFStringBody(string(models.KindArray)))

	var body bytes.Buffer
	body.Write(encodeFStringBody(string(models.KindInt)))
	body.WriteByte(0)
	body.Write(le32(3))
	body.Write(le32(uint32(int32(1))))
	body.Write(le32(uint32(int32(2))))
	body.Write(le32(uint32(int32(3))))

	headerLen := len(encodeFStringBody(string(models.KindInt))) + 1 // inner_type FString + separator NUL
	size := uint32(body.Len() - headerLen)                          // §3 convention: size excludes inner_type header
	buf.Write(le32(size))
	buf.Write(le32(0))
	buf.Write(body.Bytes())
	buf.Write(encodeFStringBody(sentinelNone))

	p := decodeOneProperty(t, buf.Bytes())
	ap, ok := p.(models.ArrayProperty)
	if !ok {
		t.Fatalf("got %T, want models.ArrayProperty", p)
	}
	ints, ok := ap.Values.([]int32)
	if !ok || len(ints) != 3 {
		t.Fatalf("got Values=%v, want []int32 of length 3", ap.Values)
	}

	out := roundTripProperties(t, []models.Property{p})
	if !bytes.Equal(out, buf.Bytes()) {
		t.Fatalf("array round trip mismatch:\n got  % x\n want % x", out, buf.Bytes())
	}
}

func TestArrayPropertyOfByte_ConsumesSizeMinusFour(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}

	var buf bytes.Buffer
	buf.Write(encodeFStringBody("Raw"))
	buf.Write(encodeFStringBody(string(models.KindArray)))

	size := uint32(len(payload) + 4) // §3: Array<Byte> payload length == size - 4
	buf.Write(le32(size))
	buf.Write(le32(0))
	buf.Write(encodeFStringBody(string(models.KindByte)))
	buf.WriteByte(0)
	buf.Write(le32(uint32(len(payload))))
	buf.Write(payload)
	buf.Write(encodeFStringBody(sentinelNone))

	p := decodeOneProperty(t, buf.Bytes())
	ap := p.(models.ArrayProperty)
	raw, ok := ap.Values.([]byte)
	if !ok || !bytes.Equal(raw, payload) {
		t.Fatalf("got Values=%v, want %v", ap.Values, payload)
	}

	out := roundTripProperties(t, []models.Property{p})
	if !bytes.Equal(out, buf.Bytes()) {
		t.Fatalf("array<byte> round trip mismatch:\n got  % x\n want % x", out, buf.Bytes())
	}
}

// Array<Object> (and Array<Bool>, Array<Enum>, ...) take readArray's opaque
// default case: prop_size covers the raw payload alone, with the count
// field already behind the cursor. A writer that reported
// count-inclusive size here would make the next property's re-read
// over-consume by 4 bytes.
func TestArrayPropertyOfObject_OpaqueRoundTrip(t *testing.T) {
	payload := append(encodeFStringBody("/Game/Foo.Foo_C"), encodeFStringBody("/Game/Bar.Bar_C")...)

	var buf bytes.Buffer
	buf.Write(encodeFStringBody("Refs"))
	buf.Write(encodeFStringBody(string(models.KindArray)))
	buf.Write(le32(uint32(len(payload)))) // size == raw payload length, no +4
	buf.Write(le32(0))
	buf.Write(encodeFStringBody(string(models.KindObject)))
	buf.WriteByte(0)
	buf.Write(le32(2)) // count, not consulted by the opaque reader
	buf.Write(payload)
	buf.Write(encodeFStringBody(sentinelNone))

	p := decodeOneProperty(t, buf.Bytes())
	ap, ok := p.(models.ArrayProperty)
	if !ok {
		t.Fatalf("got %T, want models.ArrayProperty", p)
	}
	raw, ok := ap.Values.([]byte)
	if !ok || !bytes.Equal(raw, payload) {
		t.Fatalf("got Values=%v, want %v", ap.Values, payload)
	}

	out := roundTripProperties(t, []models.Property{p})
	if !bytes.Equal(out, buf.Bytes()) {
		t.Fatalf("array<object> round trip mismatch:\n got  % x\n want % x", out, buf.Bytes())
	}
}

func encodeBoolPropertyWire(name string, value bool) []byte {
	w := newWriter()
	if err := writeProperty(w, models.BoolProperty{Base: models.Base{PropName: name}, Value: value}); err != nil {
		panic(err)
	}
	return w.bytes()
}

// Array<Struct> elements are bounded by the byte region prop_size covers
// (measured after the count field), not by count: the trailing "None"
// sentinel the writer always emits can land before count elements have
// been read back, and the reader must still consume it so the next
// property starts at the right offset.
func TestArrayPropertyOfStruct_RoundTrip(t *testing.T) {
	elem0 := encodeBoolPropertyWire("Active", true)
	elem1 := encodeBoolPropertyWire("Active", false)
	none := encodeFStringBody(sentinelNone)

	var buf bytes.Buffer
	buf.Write(encodeFStringBody("Rows"))
	buf.Write(encodeFStringBody(string(models.KindArray)))
	size := uint32(len(elem0) + len(elem1) + len(none)) // excludes the count field (§ arrayWireSize)
	buf.Write(le32(size))
	buf.Write(le32(0))
	buf.Write(encodeFStringBody(string(models.KindStruct)))
	buf.WriteByte(0)
	buf.Write(le32(2)) // count
	buf.Write(elem0)
	buf.Write(elem1)
	buf.Write(none)
	buf.Write(encodeFStringBody(sentinelNone))

	p := decodeOneProperty(t, buf.Bytes())
	ap, ok := p.(models.ArrayProperty)
	if !ok {
		t.Fatalf("got %T, want models.ArrayProperty", p)
	}
	elems, ok := ap.Values.([]models.Property)
	if !ok || len(elems) != 2 {
		t.Fatalf("got Values=%v, want []models.Property of length 2", ap.Values)
	}

	out := roundTripProperties(t, []models.Property{p})
	if !bytes.Equal(out, buf.Bytes()) {
		t.Fatalf("array<struct> round trip mismatch:\n got  % x\n want % x", out, buf.Bytes())
	}
}

func buildVectorStructBytes(name string, x, y, z float32) []byte {
	var buf bytes.Buffer
	buf.Write(encodeFStringBody(name))
	buf.Write(encodeFStringBody(string(models.KindStruct)))
	buf.Write(le32(12))
	buf.Write(le32(0))
	buf.Write(encodeFStringBody("Vector"))
	buf.Write(make([]byte, 16)) // zero GUID
	buf.WriteByte(0)
	buf.Write(le32(floatBits(x)))
	buf.Write(le32(floatBits(y)))
	buf.Write(le32(floatBits(z)))
	return buf.Bytes()
}

func floatBits(f float32) uint32 {
	w := newWriter()
	w.writeF32(f)
	b := w.bytes()
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestStructProperty_VectorWellKnownRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(buildVectorStructBytes("Location", 1.5, -2.5, 3.0))
	buf.Write(encodeFStringBody(sentinelNone))

	p := decodeOneProperty(t, buf.Bytes())
	sp, ok := p.(models.StructProperty)
	if !ok {
		t.Fatalf("got %T, want models.StructProperty", p)
	}
	if sp.StructType != "Vector" || len(sp.Fields) != 3 {
		t.Fatalf("got StructType=%q, %d fields; want Vector with 3 fields", sp.StructType, len(sp.Fields))
	}

	out := roundTripProperties(t, []models.Property{p})
	if !bytes.Equal(out, buf.Bytes()) {
		t.Fatalf("Vector struct round trip mismatch:\n got  % x\n want % x", out, buf.Bytes())
	}
}

func TestStructProperty_DateTimeAndGuidRoundTrip(t *testing.T) {
	// DateTime
	var dtBuf bytes.Buffer
	dtBuf.Write(encodeFStringBody("Timestamp"))
	dtBuf.Write(encodeFStringBody(string(models.KindStruct)))
	dtBuf.Write(le32(8))
	dtBuf.Write(le32(0))
	dtBuf.Write(encodeFStringBody("DateTime"))
	dtBuf.Write(make([]byte, 16))
	dtBuf.WriteByte(0)
	dtBuf.Write(le64(123456789))
	dtBuf.Write(encodeFStringBody(sentinelNone))

	p := decodeOneProperty(t, dtBuf.Bytes())
	sp := p.(models.StructProperty)
	if sp.StructType != "DateTime" || len(sp.Fields) != 1 {
		t.Fatalf("got DateTime struct with %d fields, want 1", len(sp.Fields))
	}
	ip, ok := sp.Fields[0].(models.Int64Property)
	if !ok || ip.Value != 123456789 {
		t.Fatalf("got DateTime field %v, want Int64Property{Value:123456789}", sp.Fields[0])
	}
	out := roundTripProperties(t, []models.Property{p})
	if !bytes.Equal(out, dtBuf.Bytes()) {
		t.Fatalf("DateTime struct round trip mismatch:\n got  % x\n want % x", out, dtBuf.Bytes())
	}

	// Guid
	rawGUID := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	var guidBuf bytes.Buffer
	guidBuf.Write(encodeFStringBody("UniqueId"))
	guidBuf.Write(encodeFStringBody(string(models.KindStruct)))
	guidBuf.Write(le32(16))
	guidBuf.Write(le32(0))
	guidBuf.Write(encodeFStringBody("Guid"))
	guidBuf.Write(make([]byte, 16))
	guidBuf.WriteByte(0)
	guidBuf.Write(rawGUID)
	guidBuf.Write(encodeFStringBody(sentinelNone))

	p2 := decodeOneProperty(t, guidBuf.Bytes())
	sp2 := p2.(models.StructProperty)
	if sp2.StructType != "Guid" || len(sp2.Fields) != 1 {
		t.Fatalf("got Guid struct with %d fields, want 1", len(sp2.Fields))
	}
	np, ok := sp2.Fields[0].(models.NameProperty)
	if !ok || np.Value != "33221100-5544-7766-8899-aabbccddeeff" {
		t.Fatalf("got Guid field %v, want canonical GUID string", sp2.Fields[0])
	}
	out2 := roundTripProperties(t, []models.Property{p2})
	if !bytes.Equal(out2, guidBuf.Bytes()) {
		t.Fatalf("Guid struct round trip mismatch:\n got  % x\n want % x", out2, guidBuf.Bytes())
	}
}

func le64(v uint64) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

func TestReadProperties_RejectsSizeInvariantViolation(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeFStringBody("BadInt64"))
	buf.Write(encodeFStringBody(string(models.KindInt64)))
	buf.Write(le32(4)) // wrong: Int64 must be size 8
	buf.Write(le32(0))
	buf.Write(le64(1))

	d := newDecoder(buf.Bytes(), options{maxDepth: defaultMaxDepth})
	if _, err := d.readProperties(0); err == nil {
		t.Fatalf("expected FormatError for wrong Int64Property size")
	}
}

func TestReadProperties_RejectsUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeFStringBody("Mystery"))
	buf.Write(encodeFStringBody("TotallyMadeUpProperty"))
	buf.Write(le32(0))
	buf.Write(le32(0))

	d := newDecoder(buf.Bytes(), options{maxDepth: defaultMaxDepth})
	if _, err := d.readProperties(0); err == nil {
		t.Fatalf("expected FormatError for unknown property kind")
	}
}

func TestReadProperties_RecursionDepthBound(t *testing.T) {
	// A StructProperty with a non-well-known type recurses into readProperties
	// for its fields; nest deep enough to exceed a tiny maxDepth.
	inner := encodeFStringBody(sentinelNone)
	var structBody bytes.Buffer
	structBody.Write(encodeFStringBody("CustomStruct"))
	structBody.Write(make([]byte, 16))
	structBody.WriteByte(0)
	structBody.Write(inner)

	var buf bytes.Buffer
	buf.Write(encodeFStringBody("Nested"))
	buf.Write(encodeFStringBody(string(models.KindStruct)))
	buf.Write(le32(uint32(structBody.Len())))
	buf.Write(le32(0))
	buf.Write(structBody.Bytes())

	d := newDecoder(buf.Bytes(), options{maxDepth: 0})
	d.maxDepth = 0
	if _, err := d.readProperties(0); err == nil {
		t.Fatalf("expected depth-bound FormatError")
	}
}
