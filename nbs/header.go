package nbs

import (
	"fmt"
	"time"
)

// The number of built-in instruments the original NoteBlockStudio had. Classic files don't store it.
const ClassicVanillaInstrumentCount = 10

// Header holds the song-level metadata stored at the start of a file.
type Header struct {
	// Not stored as a field of its own; decided by the leading marker and version byte.
	Format Format

	// Amount of built-in instruments when the song was saved. Instrument ids at or above
	// this value refer to custom instruments. OpenNoteBlockStudio only.
	VanillaInstrumentCount uint8

	// The length of the song in ticks. In classic files this doubles as the format marker.
	// OpenNoteBlockStudio stores it from version 3. Derived, see Song.Update.
	SongLength uint16
	// The number of layer records following the note grid. Derived, see Song.Update.
	LayerCount uint16

	Name           string
	Author         string
	OriginalAuthor string
	Description    string

	// Ticks per second multiplied by 100.
	Tempo uint16

	// Auto-saving settings. Still saved by newer editors, but no longer used.
	AutoSave         bool
	AutoSaveInterval uint8 // Minutes between auto-saves (1-60).

	// If this is 3, the signature is 3/4.
	TimeSignature uint8

	MinutesSpent  uint32
	LeftClicks    uint32
	RightClicks   uint32
	BlocksAdded   uint32
	BlocksRemoved uint32

	// The .mid or .schematic file the song was imported from (name only, no path).
	ImportedFileName string

	// Looping settings, OpenNoteBlockStudio version 4 onward.
	Loop          bool
	MaxLoopCount  uint8 // 0 = infinite.
	LoopStartTick uint16
}

// NewHeader returns a header with the defaults a fresh song gets in the editor.
func NewHeader(format Format) Header {
	h := Header{
		Format:        format,
		Tempo:         1000,
		TimeSignature: 4,
	}
	if format.IsOpen() {
		h.VanillaInstrumentCount = BuiltinInstrumentCount
	}
	return h
}

// vanillaInstruments returns the id of the first custom instrument for this header's format.
func (h *Header) vanillaInstruments() uint8 {
	if h.Format.IsOpen() {
		return h.VanillaInstrumentCount
	}
	return ClassicVanillaInstrumentCount
}

// IsCustomInstrument returns true if the instrument id refers to the custom instrument table.
func (h *Header) IsCustomInstrument(id uint8) bool {
	return id >= h.vanillaInstruments()
}

// CustomInstrumentIndex converts an instrument id into an index into the custom instrument table.
// ok is false for built-in instruments.
func (h *Header) CustomInstrumentIndex(id uint8) (index int, ok bool) {
	if !h.IsCustomInstrument(id) {
		return 0, false
	}
	return int(id - h.vanillaInstruments()), true
}

// TicksPerSecond returns the tempo as a float.
func (h *Header) TicksPerSecond() float64 {
	return float64(h.Tempo) / 100
}

// Duration returns how long the song plays for according to SongLength and Tempo.
// A zero tempo gives a zero duration.
func (h *Header) Duration() time.Duration {
	return ticksToDuration(int(h.SongLength), h.Tempo)
}

func ticksToDuration(ticks int, tempo uint16) time.Duration {
	if tempo == 0 {
		return 0
	}
	seconds := float64(ticks) / (float64(tempo) / 100)
	return time.Duration(seconds * float64(time.Second))
}

// decodeHeader reads every header field after the format marker (and version byte).
func decodeHeader(r *reader, format Format, marker uint16) (Header, error) {
	h := Header{Format: format, SongLength: marker}

	fail := func(field string, err error) (Header, error) {
		return Header{}, malformed(ErrMalformedHeader, err, "%s", field)
	}

	var err error
	if format.IsOpen() {
		if h.VanillaInstrumentCount, err = r.u8(); err != nil {
			return fail("vanilla instrument count", err)
		}
	}
	if format.Supports(3) {
		if h.SongLength, err = r.u16(); err != nil {
			return fail("song length", err)
		}
	}
	if h.LayerCount, err = r.u16(); err != nil {
		return fail("layer count", err)
	}
	if h.LayerCount > MaxLayers {
		return Header{}, fmt.Errorf("%w: layer count %d exceeds %d", ErrMalformedHeader, h.LayerCount, MaxLayers)
	}

	texts := []struct {
		name string
		dst  *string
	}{
		{"song name", &h.Name},
		{"song author", &h.Author},
		{"original author", &h.OriginalAuthor},
		{"description", &h.Description},
	}
	for _, s := range texts {
		if *s.dst, err = r.str(); err != nil {
			return fail(s.name, err)
		}
	}

	if h.Tempo, err = r.u16(); err != nil {
		return fail("tempo", err)
	}
	if h.AutoSave, err = r.bool(); err != nil {
		return fail("auto-save", err)
	}
	if h.AutoSaveInterval, err = r.u8(); err != nil {
		return fail("auto-save interval", err)
	}
	if h.TimeSignature, err = r.u8(); err != nil {
		return fail("time signature", err)
	}

	counters := []struct {
		name string
		dst  *uint32
	}{
		{"minutes spent", &h.MinutesSpent},
		{"left clicks", &h.LeftClicks},
		{"right clicks", &h.RightClicks},
		{"blocks added", &h.BlocksAdded},
		{"blocks removed", &h.BlocksRemoved},
	}
	for _, c := range counters {
		if *c.dst, err = r.u32(); err != nil {
			return fail(c.name, err)
		}
	}

	if h.ImportedFileName, err = r.str(); err != nil {
		return fail("imported file name", err)
	}

	if format.Supports(4) {
		if h.Loop, err = r.bool(); err != nil {
			return fail("loop", err)
		}
		if h.MaxLoopCount, err = r.u8(); err != nil {
			return fail("max loop count", err)
		}
		if h.LoopStartTick, err = r.u16(); err != nil {
			return fail("loop start tick", err)
		}
	}

	return h, nil
}

// encode writes the header, marker included, in the layout of h.Format.
func (h *Header) encode(w *writer) error {
	if err := h.Format.Validate(); err != nil {
		return err
	}

	if h.Format.IsOpen() {
		w.u16(0)
		w.u8(h.Format.Version)
		w.u8(h.VanillaInstrumentCount)
	} else {
		// Zero would make the file read back as OpenNoteBlockStudio.
		if h.SongLength == 0 {
			return fmt.Errorf("%w: classic songs need a non-zero song length", ErrMalformedHeader)
		}
		w.u16(h.SongLength)
	}
	if h.Format.Supports(3) {
		w.u16(h.SongLength)
	}
	w.u16(h.LayerCount)
	w.str(h.Name)
	w.str(h.Author)
	w.str(h.OriginalAuthor)
	w.str(h.Description)
	w.u16(h.Tempo)
	w.bool(h.AutoSave)
	w.u8(h.AutoSaveInterval)
	w.u8(h.TimeSignature)
	w.u32(h.MinutesSpent)
	w.u32(h.LeftClicks)
	w.u32(h.RightClicks)
	w.u32(h.BlocksAdded)
	w.u32(h.BlocksRemoved)
	w.str(h.ImportedFileName)
	if h.Format.Supports(4) {
		w.bool(h.Loop)
		w.u8(h.MaxLoopCount)
		w.u16(h.LoopStartTick)
	}

	if w.err != nil {
		return fmt.Errorf("writing header: %w", w.err)
	}
	return nil
}
