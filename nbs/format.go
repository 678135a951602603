package nbs

import "fmt"

// Kind tells the original NoteBlockStudio layout apart from the OpenNoteBlockStudio one.
type Kind int

const (
	Classic Kind = iota
	OpenNoteBlockStudio
)

// The range of OpenNoteBlockStudio versions this package can read and write.
const (
	MinOpenVersion = 1
	MaxOpenVersion = 4
)

// Format identifies the layout of a file. Every optional field in the header, notes and layers
// is present or absent purely as a function of the format.
type Format struct {
	Kind Kind
	// For OpenNoteBlockStudio, the declared version (1..4). Always 0 for Classic.
	Version uint8
}

// ClassicFormat returns the format of files written by the original NoteBlockStudio.
func ClassicFormat() Format {
	return Format{Kind: Classic}
}

// OpenFormat returns the OpenNoteBlockStudio format with the given version.
func OpenFormat(version uint8) Format {
	return Format{Kind: OpenNoteBlockStudio, Version: version}
}

// IsOpen returns true if the format is one of the OpenNoteBlockStudio versions.
func (f Format) IsOpen() bool {
	return f.Kind == OpenNoteBlockStudio
}

// Supports reports whether fields introduced in OpenNoteBlockStudio version v exist in this format.
func (f Format) Supports(v uint8) bool {
	return f.IsOpen() && f.Version >= v
}

// Validate returns an error if the format can't be encoded or decoded.
func (f Format) Validate() error {
	switch f.Kind {
	case Classic:
		if f.Version != 0 {
			return fmt.Errorf("%w: classic format has no version, got %d", ErrUnsupportedVersion, f.Version)
		}
		return nil
	case OpenNoteBlockStudio:
		if f.Version < MinOpenVersion || f.Version > MaxOpenVersion {
			return fmt.Errorf("%w: version %d (supported %d..%d)", ErrUnsupportedVersion, f.Version, MinOpenVersion, MaxOpenVersion)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown format kind %d", ErrUnsupportedVersion, f.Kind)
	}
}

func (f Format) String() string {
	if f.IsOpen() {
		return fmt.Sprintf("OpenNoteBlockStudio v%d", f.Version)
	}
	return "NoteBlockStudio (classic)"
}

// detectFormat reads the leading marker and, for OpenNoteBlockStudio files, the version byte.
// For classic files the marker is the song length and is returned alongside the format.
func detectFormat(r *reader) (Format, uint16, error) {
	marker, err := r.u16()
	if err != nil {
		return Format{}, 0, malformed(ErrMalformedHeader, err, "format marker")
	}
	if marker != 0 {
		return ClassicFormat(), marker, nil
	}

	version, err := r.u8()
	if err != nil {
		return Format{}, 0, malformed(ErrMalformedHeader, err, "version")
	}
	format := OpenFormat(version)
	if err := format.Validate(); err != nil {
		return Format{}, 0, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	return format, 0, nil
}
