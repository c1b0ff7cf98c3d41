package uesave

import (
	"log"
	"strings"

	"github.com/pboechat/uesave/models"
)

var magic = []byte("GVAS")

const (
	maxCustomVersionCount = 10000
	maxCustomVersionsFmt  = 10
)

// readHeader decodes the GVAS prelude and the ambiguous custom-versions
// record, per §4.3. It mirrors original_source's _read_gvas_header for the
// fixed prelude, then extends it with the full variant-A-through-E
// trial-parse the distilled spec calls for.
func (d *decoder) readHeader() (*models.Header, error) {
	c := d.cur
	start := c.position()
	if c.remaining() < 4 {
		return nil, newFormatError(start, "not enough bytes for GVAS magic")
	}
	m, err := c.readBytes(4)
	if err != nil || string(m) != "GVAS" {
		return nil, newFormatError(start, "missing GVAS magic")
	}

	h := &models.Header{Magic: "GVAS"}

	saveGameVersion, err := c.readI32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	h.SaveGameVersion = saveGameVersion

	if err := d.readFileVersions(h); err != nil {
		return nil, err
	}

	ev, err := d.readEngineVersion()
	if err != nil {
		return nil, err
	}
	h.EngineVersion = *ev

	if err := d.readCustomVersionsAndClassName(h); err != nil {
		return nil, err
	}

	return h, nil
}

// readFileVersions implements the dual-UE4/UE5-vs-single plausibility check:
// peek the next two i32s as the dual-version candidates, then peek the two
// u16s that would follow as engine major/minor and accept the dual layout
// only if both look like plausible engine version numbers.
func (d *decoder) readFileVersions(h *models.Header) error {
	c := d.cur
	start := c.position()

	ue4, err := c.readI32()
	if err != nil {
		c.seek(start)
		return d.readSinglePackageVersion(h)
	}
	ue5, err := c.readI32()
	if err != nil {
		c.seek(start)
		return d.readSinglePackageVersion(h)
	}
	afterDual := c.position()
	engMajor, err1 := c.readU16()
	engMinor, err2 := c.readU16()
	c.seek(afterDual)

	if err1 == nil && err2 == nil && engMajor <= 50 && engMinor <= 50 {
		h.HasDualVersion = true
		h.FileVersionUE4 = ue4
		h.FileVersionUE5 = ue5
		return nil
	}

	c.seek(start)
	return d.readSinglePackageVersion(h)
}

func (d *decoder) readSinglePackageVersion(h *models.Header) error {
	v, err := d.cur.readI32()
	if err != nil {
		return wrapFormatError(d.cur.position(), err)
	}
	h.HasDualVersion = false
	h.PackageFileVersion = v
	return nil
}

func (d *decoder) readEngineVersion() (*models.EngineVersion, error) {
	c := d.cur
	major, err := c.readU16()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	minor, err := c.readU16()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	patch, err := c.readU16()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	changelist, err := c.readU32()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	branch, err := c.readString()
	if err != nil {
		return nil, wrapFormatError(c.position(), err)
	}
	return &models.EngineVersion{
		Major: major, Minor: minor, Patch: patch,
		Changelist: changelist, Branch: branch,
	}, nil
}

// readCustomVersionsAndClassName attempts header variants A through E in
// order (§4.3), snapshotting the cursor before each attempt and restoring
// it on failure. The first variant whose trailing class name passes
// plausibleClassName wins; rejected attempts are only logged when debug
// mode is enabled (§7).
func (d *decoder) readCustomVersionsAndClassName(h *models.Header) error {
	attempts := []struct {
		name string
		fn   func(*cursor, *models.Header) bool
	}{
		{"A", tryVariantA},
		{"B", tryVariantB},
		{"C", tryVariantC},
		{"D", tryVariantD},
		{"E", tryVariantE},
	}
	for _, a := range attempts {
		if a.fn(d.cur, h) {
			if d.debug {
				log.Printf("uesave: header custom-versions matched variant %s", a.name)
			}
			return nil
		}
		if d.debug {
			log.Printf("uesave: header custom-versions variant %s rejected", a.name)
		}
	}
	return newFormatError(d.cur.position(), "no custom-versions layout passed plausibility checks")
}

// tryVariantA: fmt:i32, count:i32, (GUID, ver:i32)×count, name:string
func tryVariantA(c *cursor, h *models.Header) bool {
	start := c.position()
	fmtVal, ok := readI32Guarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	cnt, ok := readCountGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	versions, ok := readPlainCustomVersions(c, cnt)
	if !ok {
		c.seek(start)
		return false
	}
	name, ok := readClassNameGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	fv := fmtVal
	h.CustomVersionsFormat = &fv
	h.CustomVersions = versions
	h.SaveGameClassName = name
	return true
}

// tryVariantB: fmt:i32, count:i32, (GUID, ver:i32, friendly:string)×count, name:string
func tryVariantB(c *cursor, h *models.Header) bool {
	start := c.position()
	fmtVal, ok := readI32Guarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	cnt, ok := readCountGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	versions, ok := readFriendlyCustomVersions(c, cnt)
	if !ok {
		c.seek(start)
		return false
	}
	name, ok := readClassNameGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	fv := fmtVal
	h.CustomVersionsFormat = &fv
	h.CustomVersions = versions
	h.SaveGameClassName = name
	return true
}

// tryVariantC: count:i32, (GUID, ver:i32)×count, name:string
func tryVariantC(c *cursor, h *models.Header) bool {
	start := c.position()
	cnt, ok := readCountGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	versions, ok := readPlainCustomVersions(c, cnt)
	if !ok {
		c.seek(start)
		return false
	}
	name, ok := readClassNameGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	h.CustomVersionsFormat = nil
	h.CustomVersions = versions
	h.SaveGameClassName = name
	return true
}

// tryVariantD: count:i32, (GUID, ver:i32, friendly:string)×count, name:string
func tryVariantD(c *cursor, h *models.Header) bool {
	start := c.position()
	cnt, ok := readCountGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	versions, ok := readFriendlyCustomVersions(c, cnt)
	if !ok {
		c.seek(start)
		return false
	}
	name, ok := readClassNameGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	h.CustomVersionsFormat = nil
	h.CustomVersions = versions
	h.SaveGameClassName = name
	return true
}

// tryVariantE: name:string (no custom versions at all)
func tryVariantE(c *cursor, h *models.Header) bool {
	start := c.position()
	name, ok := readClassNameGuarded(c)
	if !ok {
		c.seek(start)
		return false
	}
	h.CustomVersionsFormat = nil
	h.CustomVersions = nil
	h.SaveGameClassName = name
	return true
}

func readI32Guarded(c *cursor) (int32, bool) {
	v, err := c.readI32()
	if err != nil || v < 0 || v > maxCustomVersionsFmt {
		return 0, false
	}
	return v, true
}

func readCountGuarded(c *cursor) (int32, bool) {
	v, err := c.readI32()
	if err != nil || v < 0 || v > maxCustomVersionCount {
		return 0, false
	}
	return v, true
}

func readPlainCustomVersions(c *cursor, count int32) ([]models.CustomVersion, bool) {
	versions := make([]models.CustomVersion, 0, count)
	for i := int32(0); i < count; i++ {
		guid, err := c.readGUID()
		if err != nil {
			return nil, false
		}
		ver, err := c.readI32()
		if err != nil {
			return nil, false
		}
		versions = append(versions, models.CustomVersion{GUID: guid, Version: ver})
	}
	return versions, true
}

func readFriendlyCustomVersions(c *cursor, count int32) ([]models.CustomVersion, bool) {
	versions := make([]models.CustomVersion, 0, count)
	for i := int32(0); i < count; i++ {
		guid, err := c.readGUID()
		if err != nil {
			return nil, false
		}
		ver, err := c.readI32()
		if err != nil {
			return nil, false
		}
		friendly, err := c.readString()
		if err != nil {
			return nil, false
		}
		versions = append(versions, models.CustomVersion{GUID: guid, Version: ver, FriendlyName: friendly})
	}
	return versions, true
}

func readClassNameGuarded(c *cursor) (string, bool) {
	name, err := c.readString()
	if err != nil || !plausibleClassName(name) {
		return "", false
	}
	return name, true
}

// plausibleClassName implements the heuristic from §4.3: a 1-2048
// character string where at least 75% of characters are drawn from the
// allowed UE class-path charset, with common markers accepted as
// affirming (but not required - the heuristic never rejects on their
// absence, matching the reference behavior).
func plausibleClassName(s string) bool {
	if len(s) < 1 || len(s) > 2048 {
		return false
	}
	const allowed = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_./\\:-$[]()<>@!%+,' \""
	ok := 0
	for _, r := range s {
		if strings.ContainsRune(allowed, r) {
			ok++
		}
	}
	if float64(ok)/float64(len([]rune(s))) < 0.75 {
		return false
	}
	return true
}

// writeHeader emits the canonical Variant-A shape unconditionally, per
// §4.3: "Writer emits only Variant A ... using the stored
// custom_versions_format." Headers decoded via B-E are normalized to A on
// write; their custom-versions content (GUID/version pairs) is preserved,
// friendly names and the missing format tag are not.
func writeHeader(w *writer, h *models.Header) error {
	w.writeBytes(magic)
	w.writeI32(h.SaveGameVersion)

	if h.HasDualVersion {
		w.writeI32(h.FileVersionUE4)
		w.writeI32(h.FileVersionUE5)
	} else {
		w.writeI32(h.PackageFileVersion)
	}

	w.writeU16(h.EngineVersion.Major)
	w.writeU16(h.EngineVersion.Minor)
	w.writeU16(h.EngineVersion.Patch)
	w.writeU32(h.EngineVersion.Changelist)
	w.writeString(h.EngineVersion.Branch)

	fmtVal := int32(0)
	if h.CustomVersionsFormat != nil {
		fmtVal = *h.CustomVersionsFormat
	}
	w.writeI32(fmtVal)
	w.writeI32(int32(len(h.CustomVersions)))
	for _, cv := range h.CustomVersions {
		if err := w.writeGUID(cv.GUID); err != nil {
			return err
		}
		w.writeI32(cv.Version)
	}

	w.writeString(h.SaveGameClassName)
	return nil
}
