package uesave

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF8FString strips the trailing NUL UE includes in the positive-length
// FString branch and decodes the remainder as UTF-8. Malformed UTF-8 is not
// fatal: it falls back to permissive charset recovery instead, per §4.1.1.
func decodeUTF8FString(raw []byte) string {
	raw = bytes.TrimRight(raw, "\x00")
	if utf8.Valid(raw) {
		return string(raw)
	}
	return recoverNonUTF8String(raw)
}

// decodeUTF16FString decodes the negative-length FString branch: raw is
// 2*|n| bytes of UTF-16LE including the terminating code unit.
func decodeUTF16FString(raw []byte) (string, error) {
	out, err := utf16LE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("utf16le decode: %w", err)
	}
	return strings.TrimRight(string(out), "\x00"), nil
}

// isASCIISafe reports whether every rune in s is in the 7-bit ASCII range,
// the condition write_string uses to pick the UTF-8 branch over UTF-16LE.
func isASCIISafe(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

// encodeFStringBody returns the FString payload (length prefix + bytes) for
// s, per the write_string contract in §4.1: empty writes a bare zero
// length, ASCII strings use the UTF-8 branch, anything else uses UTF-16LE.
func encodeFStringBody(s string) []byte {
	if s == "" {
		return appendI32(nil, 0)
	}
	if isASCIISafe(s) {
		out := appendI32(nil, int32(len(s)+1))
		out = append(out, s...)
		out = append(out, 0)
		return out
	}
	payload, err := utf16LE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// Every valid Go string round-trips through UTF-16LE (Go strings
		// cannot contain lone surrogates); this path is unreachable for
		// well-formed input but is handled rather than panicking.
		payload = nil
	}
	payload = append(payload, 0, 0) // terminating code unit
	codeUnits := len(payload) / 2
	out := appendI32(nil, -int32(codeUnits))
	out = append(out, payload...)
	return out
}

// recoverNonUTF8String mirrors the teacher's PT_STRING8 recovery chain in
// parsemsg.go (extractData case 0x1e): sniff a charset with chardet, map it
// to a golang.org/x/text encoding (falling back to x/net/html/charset's
// label table for anything chardet names that charmap doesn't export
// directly), and decode through it. If every step fails, Windows-1252 is
// assumed unconditionally - this path must never be fatal, per §7.
func recoverNonUTF8String(raw []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(raw)

	var enc encoding.Encoding
	if err == nil && result != nil {
		switch strings.ToLower(result.Charset) {
		case "windows-1252":
			enc = charmap.Windows1252
		case "iso-8859-1":
			enc = charmap.ISO8859_1
		case "utf-8":
			return string(raw)
		default:
			enc, _ = charset.Lookup(result.Charset)
		}
	}
	if enc == nil {
		enc = charmap.Windows1252
	}
	decoded, decErr := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if decErr != nil || !utf8.Valid(decoded) {
		decoded, decErr = charmap.Windows1252.NewDecoder().Bytes(raw)
		if decErr != nil {
			return string(raw)
		}
	}
	return string(decoded)
}

func appendI32(buf []byte, v int32) []byte {
	u := uint32(v)
	return append(buf, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}
