package uesave

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cursor is the binary read primitive every decoder in this package is
// built on: fixed-width little-endian integer reads plus the Unreal
// FString and GUID codecs, all tracked against a single position so that
// header variant trial-parsing (§4.3) can snapshot and restore it cheaply.
//
// This replaces the teacher's pattern of allocating a fresh []byte and
// calling entry.Read(...) at every call site (see extractData in
// parsemsg.go) with a single stateful reader, since GVAS decoding walks one
// contiguous buffer rather than a compound-file stream.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) len() int { return len(c.data) }

// position returns the current read offset, used by callers that need to
// snapshot it before a speculative parse.
func (c *cursor) position() int { return c.pos }

// seek restores a previously snapshotted position. Used to back out of a
// failed header-variant attempt.
func (c *cursor) seek(pos int) { c.pos = pos }

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) require(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return fmt.Errorf("unexpected end of buffer at offset %d: need %d bytes, have %d", c.pos, n, c.remaining())
	}
	return nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readI32() (int32, error) {
	v, err := c.readU32()
	return int32(v), err
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) readI64() (int64, error) {
	v, err := c.readU64()
	return int64(v), err
}

func (c *cursor) readF32() (float32, error) {
	v, err := c.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (c *cursor) readF64() (float64, error) {
	v, err := c.readU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readString implements the Unreal FString contract (§4.1): a signed i32
// length, positive meaning UTF-8 with a trailing NUL, negative meaning
// UTF-16LE with -length code units including the terminator, zero meaning
// empty.
func (c *cursor) readString() (string, error) {
	n, err := c.readI32()
	if err != nil {
		return "", err
	}
	switch {
	case n == 0:
		return "", nil
	case n > 0:
		raw, err := c.readBytes(int(n))
		if err != nil {
			return "", err
		}
		return decodeUTF8FString(raw), nil
	default:
		count := int(-n)
		raw, err := c.readBytes(count * 2)
		if err != nil {
			return "", err
		}
		return decodeUTF16FString(raw)
	}
}

// readGUID consumes 16 raw bytes and renders them in canonical
// XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX form, reversing the byte order of
// the first three groups (little-endian on the wire, big-endian for
// display) per §3.
func (c *cursor) readGUID() (string, error) {
	raw, err := c.readBytes(16)
	if err != nil {
		return "", err
	}
	return formatGUID(raw), nil
}
