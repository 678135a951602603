package nbs

import "fmt"

// Instrument is a raw instrument id as stored in a note. Ids below the header's vanilla
// instrument count are built-in; the rest index the custom instrument table.
type Instrument uint8

// Built-in instruments, in the order the editor numbers them.
const (
	Piano Instrument = iota
	DoubleBass
	BassDrum
	SnareDrum
	Click
	Guitar
	Flute
	Bell
	Chime
	Xylophone
	IronXylophone
	CowBell
	Didgeridoo
	Bit
	Banjo
	Pling
)

// BuiltinInstrumentCount is the number of built-in instruments in OpenNoteBlockStudio.
const BuiltinInstrumentCount = 16

var instrumentNames = [BuiltinInstrumentCount]string{
	"Piano", "Double Bass", "Bass Drum", "Snare Drum", "Click", "Guitar", "Flute", "Bell",
	"Chime", "Xylophone", "Iron Xylophone", "Cow Bell", "Didgeridoo", "Bit", "Banjo", "Pling",
}

func (i Instrument) String() string {
	if int(i) < len(instrumentNames) {
		return instrumentNames[i]
	}
	return fmt.Sprintf("Instrument(%d)", uint8(i))
}

// The keyboard range of the editor: 0 is A0 and 87 is C8. Keys 33-57 are playable in vanilla Minecraft.
const (
	MinKey = 0
	MaxKey = 87
)

// Values optional note fields take when the format doesn't store them.
const (
	DefaultVelocity = 100
	DefaultPanning  = 100 // Centre.
	DefaultPitch    = 0
)

// Note is a single note block.
type Note struct {
	Instrument Instrument
	// The key, from 0 (A0) to 87 (C8). Values outside this range are kept as they are.
	Key int8

	// Fields below are only stored from OpenNoteBlockStudio version 4.
	Velocity uint8 // 0-100%.
	Panning  uint8 // 0-200, 100 is centre.
	Pitch    int16 // Fine pitch in cents; 100 is one semitone.
}

// NewNote returns a note with the optional fields set to their defaults.
func NewNote(instrument Instrument, key int8) Note {
	return Note{
		Instrument: instrument,
		Key:        key,
		Velocity:   DefaultVelocity,
		Panning:    DefaultPanning,
		Pitch:      DefaultPitch,
	}
}

// InKeyRange returns true if the key lies on the editor's keyboard.
func (n Note) InKeyRange() bool {
	return n.Key >= MinKey && n.Key <= MaxKey
}

func decodeNote(r *reader, format Format) (Note, error) {
	n := NewNote(0, 0)

	instrument, err := r.u8()
	if err != nil {
		return Note{}, fmt.Errorf("instrument: %w", err)
	}
	n.Instrument = Instrument(instrument)
	if n.Key, err = r.i8(); err != nil {
		return Note{}, fmt.Errorf("key: %w", err)
	}

	if format.Supports(4) {
		if n.Velocity, err = r.u8(); err != nil {
			return Note{}, fmt.Errorf("velocity: %w", err)
		}
		if n.Panning, err = r.u8(); err != nil {
			return Note{}, fmt.Errorf("panning: %w", err)
		}
		if n.Pitch, err = r.i16(); err != nil {
			return Note{}, fmt.Errorf("pitch: %w", err)
		}
	}
	return n, nil
}

// encode writes the note. Fields the format doesn't have are dropped without error.
func (n Note) encode(w *writer, format Format) {
	w.u8(uint8(n.Instrument))
	w.i8(n.Key)
	if format.Supports(4) {
		w.u8(n.Velocity)
		w.u8(n.Panning)
		w.i16(n.Pitch)
	}
}
