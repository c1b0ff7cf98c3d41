package uesave

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// formatGUID renders 16 raw little-endian bytes as a canonical
// XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX string, reversing the byte order of
// the first three groups the way the teacher's own PT_CLSID/PT_MV_CLSID
// handling does in parsemsg.go (extractData cases 0x0048/0x1048), generalized
// from a one-off fmt.Sprintf call into a reusable codec pair.
func formatGUID(raw []byte) string {
	if len(raw) != 16 {
		return ""
	}
	part1 := reverseHex(raw[0:4])
	part2 := reverseHex(raw[4:6])
	part3 := reverseHex(raw[6:8])
	part4 := hex.EncodeToString(raw[8:10])
	part5 := hex.EncodeToString(raw[10:16])
	return fmt.Sprintf("%s-%s-%s-%s-%s", part1, part2, part3, part4, part5)
}

// parseGUID is the exact inverse of formatGUID: it reconstructs the 16 raw
// little-endian bytes a canonical GUID string was derived from.
func parseGUID(guid string) ([16]byte, error) {
	var out [16]byte
	parts := strings.Split(guid, "-")
	if len(parts) != 5 {
		return out, fmt.Errorf("malformed GUID %q: expected 5 hyphen-separated groups", guid)
	}
	widths := [5]int{4, 2, 2, 2, 6}
	decoded := make([][]byte, 5)
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil {
			return out, fmt.Errorf("malformed GUID %q: %w", guid, err)
		}
		if len(b) != widths[i] {
			return out, fmt.Errorf("malformed GUID %q: group %d has wrong length", guid, i)
		}
		decoded[i] = b
	}
	n := 0
	n += copy(out[n:], reverseBytes(decoded[0]))
	n += copy(out[n:], reverseBytes(decoded[1]))
	n += copy(out[n:], reverseBytes(decoded[2]))
	n += copy(out[n:], decoded[3])
	copy(out[n:], decoded[4])
	return out, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func reverseHex(b []byte) string {
	return hex.EncodeToString(reverseBytes(b))
}
