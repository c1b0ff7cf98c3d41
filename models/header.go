package models

// EngineVersion is the fixed-layout engine identifier that follows the
// file-version group in every GVAS header.
type EngineVersion struct {
	Major      uint16
	Minor      uint16
	Patch      uint16
	Changelist uint32
	Branch     string
}

// CustomVersion is one (GUID, integer) compatibility-milestone pair from
// the header's custom-versions record. FriendlyName is only populated when
// the header was encoded with one of the friendly-name-carrying variants
// (B or D); it is empty otherwise.
type CustomVersion struct {
	GUID         string
	Version      int32
	FriendlyName string
}

// Header is the decoded GVAS prelude plus the custom-versions record. The
// file-version group is discriminated at decode time by a plausibility
// heuristic (see the header codec): exactly one of the dual UE4/UE5 fields
// or PackageFileVersion is populated, never both.
type Header struct {
	Magic              string
	SaveGameVersion    int32
	HasDualVersion     bool
	FileVersionUE4     int32
	FileVersionUE5     int32
	PackageFileVersion int32

	EngineVersion EngineVersion

	// CustomVersionsFormat is nil when the committed variant had no leading
	// format tag (variants C, D, E).
	CustomVersionsFormat *int32
	CustomVersions       []CustomVersion
	SaveGameClassName    string
}

// SaveFile is the root value this package decodes to and encodes from: a
// header plus the ordered top-level property list. It owns every Property
// node transitively, including nested Struct fields and Array<Struct>
// elements.
type SaveFile struct {
	Header     Header
	Properties []Property
}
