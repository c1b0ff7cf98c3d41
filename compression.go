package uesave

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression method selectors for DecompressPayload and the file facade.
const (
	CompressionAuto    = "auto"
	CompressionNone    = "none"
	CompressionZlib    = "zlib"
	CompressionDeflate = "deflate"
	CompressionGzip    = "gzip"
	CompressionLZ4     = "lz4"
	CompressionZstd    = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func decodeZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func decodeDeflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

func decodeGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func decodeLZ4Frame(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}

func decodeZstandard(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// DecompressPayload decompresses raw using the named method, per the
// compression envelope design in §4.2. "none" returns the input unchanged.
// "auto" sniffs magic bytes for gzip/zstd/lz4 and tries that codec first,
// then falls through zlib, raw DEFLATE, gzip, LZ4, Zstandard in order,
// returning the first candidate that decodes without error.
func DecompressPayload(raw []byte, method string) ([]byte, error) {
	m := strings.ToLower(method)
	switch m {
	case CompressionNone:
		return raw, nil
	case CompressionZlib:
		out, err := decodeZlib(raw)
		if err != nil {
			return nil, &DecompressionError{Method: m, Err: err}
		}
		return out, nil
	case CompressionDeflate:
		out, err := decodeDeflate(raw)
		if err != nil {
			return nil, &DecompressionError{Method: m, Err: err}
		}
		return out, nil
	case CompressionGzip:
		out, err := decodeGzip(raw)
		if err != nil {
			return nil, &DecompressionError{Method: m, Err: err}
		}
		return out, nil
	case CompressionLZ4:
		out, err := decodeLZ4Frame(raw)
		if err != nil {
			return nil, &DecompressionError{Method: m, Err: err}
		}
		return out, nil
	case CompressionZstd:
		out, err := decodeZstandard(raw)
		if err != nil {
			return nil, &DecompressionError{Method: m, Err: err}
		}
		return out, nil
	case CompressionAuto:
		return decompressAuto(raw)
	default:
		return nil, &DecompressionError{Method: m, Err: fmt.Errorf("unknown compression method %q", method)}
	}
}

func decompressAuto(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, gzipMagic):
		if out, err := decodeGzip(raw); err == nil {
			return out, nil
		}
	case bytes.HasPrefix(raw, zstdMagic):
		if out, err := decodeZstandard(raw); err == nil {
			return out, nil
		}
	case bytes.HasPrefix(raw, lz4Magic):
		if out, err := decodeLZ4Frame(raw); err == nil {
			return out, nil
		}
	}

	if out, err := decodeZlib(raw); err == nil {
		return out, nil
	}
	if out, err := decodeDeflate(raw); err == nil {
		return out, nil
	}
	if out, err := decodeGzip(raw); err == nil {
		return out, nil
	}
	if out, err := decodeLZ4Frame(raw); err == nil {
		return out, nil
	}
	if out, err := decodeZstandard(raw); err == nil {
		return out, nil
	}

	return nil, &DecompressionError{
		Method: CompressionAuto,
		Err:    fmt.Errorf("could not decompress payload; try an explicit --compression value"),
	}
}
