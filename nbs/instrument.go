package nbs

import (
	"fmt"
	"math"
)

// CustomInstrument is a user-supplied sound a note can refer to instead of a built-in instrument.
type CustomInstrument struct {
	Name string
	// The sound file, relative to the editor's Sounds folder.
	File string
	// The key the sound file was recorded at. 45 is F#4.
	Pitch uint8
	// Whether the editor plays a note on the piano when this instrument is selected.
	PressKey bool
}

// DefaultCustomPitch is the base key the editor gives a new custom instrument.
const DefaultCustomPitch = 45

// CustomInstruments is the table of custom instruments trailing the file.
// Entry i is referenced by notes with instrument id VanillaInstrumentCount+i.
type CustomInstruments []CustomInstrument

// decodeCustomInstruments reads the custom instrument table. Classic files may end before it;
// that reads as an empty table.
func decodeCustomInstruments(r *reader, format Format) (CustomInstruments, error) {
	count, ok, err := r.optionalU8()
	if err != nil {
		return nil, malformed(ErrMalformedInstrumentTable, err, "count")
	}
	if !ok {
		if format.IsOpen() {
			return nil, fmt.Errorf("%w: count: %w at offset %d", ErrMalformedInstrumentTable, ErrUnexpectedEOF, r.offset)
		}
		return CustomInstruments{}, nil
	}

	table := make(CustomInstruments, 0, count)
	for i := 0; i < int(count); i++ {
		var ci CustomInstrument
		if ci.Name, err = r.str(); err != nil {
			return nil, malformed(ErrMalformedInstrumentTable, err, "instrument %d name", i)
		}
		if ci.File, err = r.str(); err != nil {
			return nil, malformed(ErrMalformedInstrumentTable, err, "instrument %d file", i)
		}
		if ci.Pitch, err = r.u8(); err != nil {
			return nil, malformed(ErrMalformedInstrumentTable, err, "instrument %d pitch", i)
		}
		if ci.PressKey, err = r.bool(); err != nil {
			return nil, malformed(ErrMalformedInstrumentTable, err, "instrument %d press key", i)
		}
		table = append(table, ci)
	}
	return table, nil
}

func (ci CustomInstruments) encode(w *writer, format Format) error {
	if len(ci) > math.MaxUint8 {
		return fmt.Errorf("%w: %d custom instruments, at most %d can be stored", ErrMalformedInstrumentTable, len(ci), math.MaxUint8)
	}
	// Classic files only carry the table when there is something in it.
	if !format.IsOpen() && len(ci) == 0 {
		return nil
	}

	w.u8(uint8(len(ci)))
	for _, instrument := range ci {
		w.str(instrument.Name)
		w.str(instrument.File)
		w.u8(instrument.Pitch)
		w.bool(instrument.PressKey)
	}

	if w.err != nil {
		return fmt.Errorf("writing custom instruments: %w", w.err)
	}
	return nil
}
