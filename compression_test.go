package uesave

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

func compressZlib(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func compressGzip(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestDecompressPayload_None(t *testing.T) {
	raw := []byte("GVAS-payload")
	out, err := DecompressPayload(raw, CompressionNone)
	if err != nil {
		t.Fatalf("DecompressPayload(none): %v", err)
	}
	if string(out) != string(raw) {
		t.Fatalf("DecompressPayload(none) = %q, want %q", out, raw)
	}
}

func TestDecompressPayload_ExplicitZlib(t *testing.T) {
	plain := []byte("GVAS" + "some save data")
	compressed := compressZlib(t, plain)
	out, err := DecompressPayload(compressed, CompressionZlib)
	if err != nil {
		t.Fatalf("DecompressPayload(zlib): %v", err)
	}
	if string(out) != string(plain) {
		t.Fatalf("DecompressPayload(zlib) = %q, want %q", out, plain)
	}
}

func TestDecompressPayload_AutoSniffsGzipMagic(t *testing.T) {
	plain := []byte("GVAS" + "auto-detected gzip payload")
	compressed := compressGzip(t, plain)
	out, err := DecompressPayload(compressed, CompressionAuto)
	if err != nil {
		t.Fatalf("DecompressPayload(auto): %v", err)
	}
	if string(out) != string(plain) {
		t.Fatalf("DecompressPayload(auto) = %q, want %q", out, plain)
	}
}

func TestDecompressPayload_AutoFallsThroughToZlib(t *testing.T) {
	plain := []byte("GVAS" + "zlib without gzip/zstd/lz4 magic")
	compressed := compressZlib(t, plain)
	out, err := DecompressPayload(compressed, CompressionAuto)
	if err != nil {
		t.Fatalf("DecompressPayload(auto fallthrough): %v", err)
	}
	if string(out) != string(plain) {
		t.Fatalf("DecompressPayload(auto fallthrough) = %q, want %q", out, plain)
	}
}

func TestDecompressPayload_UnknownMethod(t *testing.T) {
	if _, err := DecompressPayload([]byte("x"), "not-a-real-codec"); err == nil {
		t.Fatalf("expected error for unknown compression method")
	}
}

func TestDecompressPayload_AutoExhaustsAllCandidates(t *testing.T) {
	if _, err := DecompressPayload([]byte("definitely not compressed"), CompressionAuto); err == nil {
		t.Fatalf("expected error when no codec can decode the input")
	}
}
