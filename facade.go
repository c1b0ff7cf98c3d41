// Package uesave reads and writes Unreal Engine "SaveGame" (GVAS) files: the
// compression envelope, the header's ambiguous custom-versions record, and
// the recursive tagged property stream that follows it.
package uesave

import (
	"bytes"
	"log"
	"os"

	"github.com/pboechat/uesave/models"
)

const gvasMagicSearchWindow = 256

// options configures a read or write pass. resolveOptions starts from the
// defaults (auto compression, no debug logging); a zero maxDepth makes
// newDecoder use the default recursion depth.
type options struct {
	compression string
	debug       bool
	maxDepth    int
}

// Option configures ReadSaveFile/WriteSaveFile, following the functional-options
// shape the teacher's debug-bool split (ParseMsgFile/ParseMsgFileWithDebug)
// generalizes to once more than one knob exists.
type Option func(*options)

// WithCompression selects an explicit compression method instead of "auto".
func WithCompression(method string) Option {
	return func(o *options) { o.compression = method }
}

// WithDebug enables verbose logging of header-variant attempts, matching
// the teacher's ParseMsgFileWithDebug behavior.
func WithDebug() Option {
	return func(o *options) { o.debug = true }
}

// WithMaxDepth overrides the default recursion bound for nested Struct and
// Array<Struct> properties (§9 "Recursive bounds").
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

func resolveOptions(opts []Option) options {
	o := options{compression: CompressionAuto}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// ReadSaveFile loads and decodes the GVAS save file at path, per §4.5.
func ReadSaveFile(path string, opts ...Option) (*models.SaveFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newIoError("read", path, err)
	}
	return DecodeSaveFile(raw, opts...)
}

// DecodeSaveFile decodes an in-memory buffer, running the compression
// envelope first when the buffer does not already start with "GVAS".
func DecodeSaveFile(raw []byte, opts ...Option) (*models.SaveFile, error) {
	o := resolveOptions(opts)

	data := raw
	if !bytes.HasPrefix(data, magic) {
		if decoded, err := DecompressPayload(raw, o.compression); err == nil && bytes.HasPrefix(decoded, magic) {
			data = decoded
		} else if idx := findMagicWithinWindow(raw); idx >= 0 {
			data = raw[idx:]
		} else {
			return nil, newFormatError(0, "GVAS magic not found")
		}
	}

	d := newDecoder(data, o)
	header, err := d.readHeader()
	if err != nil {
		return nil, err
	}
	props, err := d.readProperties(0)
	if err != nil {
		return nil, err
	}
	if o.debug {
		log.Printf("uesave: decoded %d top-level properties", len(props))
	}
	return &models.SaveFile{Header: *header, Properties: props}, nil
}

func findMagicWithinWindow(raw []byte) int {
	limit := len(raw)
	if limit > gvasMagicSearchWindow {
		limit = gvasMagicSearchWindow
	}
	return bytes.Index(raw[:limit], magic)
}

// WriteSaveFile encodes save and persists it uncompressed at path, per §4.5.
// Writing compressed output is unimplemented, matching the source this
// format was distilled from (§9).
func WriteSaveFile(path string, save *models.SaveFile) error {
	out, err := EncodeSaveFile(save)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return newIoError("write", path, err)
	}
	return nil
}

// EncodeSaveFile serializes save to an in-memory uncompressed GVAS buffer.
func EncodeSaveFile(save *models.SaveFile) ([]byte, error) {
	w := newWriter()
	if err := writeHeader(w, &save.Header); err != nil {
		return nil, err
	}
	if err := writeProperties(w, save.Properties); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}
