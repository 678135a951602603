package nbs

import (
	"fmt"
	"maps"
	"slices"
)

// Values layer fields take when the format doesn't store them.
const (
	DefaultLayerVolume = 100
	DefaultLayerStereo = 100 // Centre.
)

// Layer is a single track of the song. Notes are stored sparsely by tick.
type Layer struct {
	Name   string
	Locked bool  // OpenNoteBlockStudio version 4 onward.
	Volume uint8 // 0-100%.
	Stereo uint8 // 0-200, 100 is centre. OpenNoteBlockStudio version 2 onward.

	notes map[int]Note
}

// NewLayer returns an empty, unnamed layer at full volume and centred.
func NewLayer() *Layer {
	return &Layer{
		Volume: DefaultLayerVolume,
		Stereo: DefaultLayerStereo,
	}
}

// SetNote places a note at the given tick, replacing any note already there.
func (l *Layer) SetNote(tick int, n Note) {
	if l.notes == nil {
		l.notes = make(map[int]Note)
	}
	l.notes[tick] = n
}

// Note returns the note at tick, if there is one.
func (l *Layer) Note(tick int) (Note, bool) {
	n, ok := l.notes[tick]
	return n, ok
}

// RemoveNote deletes the note at tick. It returns false if the tick was empty.
func (l *Layer) RemoveNote(tick int) bool {
	if _, ok := l.notes[tick]; !ok {
		return false
	}
	delete(l.notes, tick)
	return true
}

// Len returns the number of notes in the layer.
func (l *Layer) Len() int {
	return len(l.notes)
}

// Ticks returns the occupied ticks in ascending order.
func (l *Layer) Ticks() []int {
	ticks := make([]int, 0, len(l.notes))
	for tick := range l.notes {
		ticks = append(ticks, tick)
	}
	slices.Sort(ticks)
	return ticks
}

// LastTick returns the highest occupied tick, or -1 for an empty layer.
func (l *Layer) LastTick() int {
	last := -1
	for tick := range l.notes {
		last = max(last, tick)
	}
	return last
}

// Equal reports whether two layers have the same settings and the same notes.
func (l *Layer) Equal(other *Layer) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.Name == other.Name &&
		l.Locked == other.Locked &&
		l.Volume == other.Volume &&
		l.Stereo == other.Stereo &&
		maps.Equal(l.notes, other.notes)
}

// decodeInfo reads the layer record that follows the note grid.
func (l *Layer) decodeInfo(r *reader, format Format) error {
	var err error
	if l.Name, err = r.str(); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if format.Supports(4) {
		if l.Locked, err = r.bool(); err != nil {
			return fmt.Errorf("lock: %w", err)
		}
	}
	if l.Volume, err = r.u8(); err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	if format.Supports(2) {
		if l.Stereo, err = r.u8(); err != nil {
			return fmt.Errorf("stereo: %w", err)
		}
	}
	return nil
}

func (l *Layer) encodeInfo(w *writer, format Format) {
	w.str(l.Name)
	if format.Supports(4) {
		w.bool(l.Locked)
	}
	w.u8(l.Volume)
	if format.Supports(2) {
		w.u8(l.Stereo)
	}
}
