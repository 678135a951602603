package nbs

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Bounds on the indexes a decoded grid may address. Jumps are only 16 bits wide, but a long
// run of them adds up, and every layer index up to the highest one gets allocated.
const (
	MaxLayers = 1 << 15
	MaxTicks  = 1 << 24
)

// NoteBlocks is the note grid of a song: a list of layers, each holding notes by tick.
// The index of a layer in Layers is its layer number.
type NoteBlocks struct {
	Layers []*Layer
}

// Layer returns the layer at index, appending empty layers until it exists.
func (nb *NoteBlocks) Layer(index int) *Layer {
	for len(nb.Layers) <= index {
		nb.Layers = append(nb.Layers, NewLayer())
	}
	if nb.Layers[index] == nil {
		nb.Layers[index] = NewLayer()
	}
	return nb.Layers[index]
}

// InsertLayer inserts l at index, shifting the layers at and after index down by one.
// An index past the end pads with empty layers first.
func (nb *NoteBlocks) InsertLayer(index int, l *Layer) {
	if index > len(nb.Layers) {
		nb.Layer(index - 1)
	}
	nb.Layers = slices.Insert(nb.Layers, index, l)
}

// Length returns the highest occupied tick plus one, or 0 when there are no notes.
func (nb *NoteBlocks) Length() int {
	last := -1
	for _, l := range nb.Layers {
		if l != nil {
			last = max(last, l.LastTick())
		}
	}
	return last + 1
}

// NoteCount returns the number of notes across all layers.
func (nb *NoteBlocks) NoteCount() int {
	count := 0
	for _, l := range nb.Layers {
		if l != nil {
			count += l.Len()
		}
	}
	return count
}

// Equal reports whether both grids have the same layers in the same order.
func (nb *NoteBlocks) Equal(other *NoteBlocks) bool {
	return slices.EqualFunc(nb.Layers, other.Layers, (*Layer).Equal)
}

type cell struct {
	tick, layer int
	note        Note
}

// cells returns every note in the order it is written: by tick, then by layer.
func (nb *NoteBlocks) cells() []cell {
	cells := make([]cell, 0, nb.NoteCount())
	for index, l := range nb.Layers {
		if l == nil {
			continue
		}
		for tick, n := range l.notes {
			cells = append(cells, cell{tick: tick, layer: index, note: n})
		}
	}
	slices.SortFunc(cells, func(a, b cell) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		return cmp.Compare(a.layer, b.layer)
	})
	return cells
}

// decodeNoteBlocks walks the jump-encoded note grid and then reads one layer record
// for each of the header's LayerCount layers.
//
// The grid is a list of tick jumps, each followed by a list of layer jumps, each followed
// by a note. A zero layer jump ends the tick and a zero tick jump ends the grid. Both
// cursors start at -1, so the first jump of 1 lands on index 0.
func decodeNoteBlocks(r *reader, h *Header) (NoteBlocks, error) {
	nb := NoteBlocks{Layers: make([]*Layer, 0, h.LayerCount)}
	for i := uint16(0); i < h.LayerCount; i++ {
		nb.Layers = append(nb.Layers, NewLayer())
	}

	tick := -1
	for {
		jump, err := r.u16()
		if err != nil {
			return NoteBlocks{}, malformed(ErrMalformedGrid, err, "tick jump after tick %d", tick)
		}
		if jump == 0 {
			break
		}
		tick += int(jump)
		if tick >= MaxTicks {
			return NoteBlocks{}, fmt.Errorf("%w: tick %d at offset %d exceeds %d", ErrMalformedGrid, tick, r.offset, MaxTicks)
		}

		layer := -1
		for {
			jump, err := r.u16()
			if err != nil {
				return NoteBlocks{}, malformed(ErrMalformedGrid, err, "layer jump at tick %d", tick)
			}
			if jump == 0 {
				break
			}
			layer += int(jump)
			if layer >= MaxLayers {
				return NoteBlocks{}, fmt.Errorf("%w: layer %d at offset %d exceeds %d", ErrMalformedGrid, layer, r.offset, MaxLayers)
			}

			n, err := decodeNote(r, h.Format)
			if err != nil {
				return NoteBlocks{}, malformed(ErrMalformedGrid, err, "note at tick %d, layer %d", tick, layer)
			}
			nb.Layer(layer).SetNote(tick, n)
		}
	}

	for i := 0; i < int(h.LayerCount); i++ {
		if err := nb.Layers[i].decodeInfo(r, h.Format); err != nil {
			return NoteBlocks{}, malformed(ErrMalformedGrid, err, "layer %d", i)
		}
	}

	return nb, nil
}

// encode writes the note grid followed by h.LayerCount layer records. Layer records past
// the end of Layers are written with default settings.
func (nb *NoteBlocks) encode(w *writer, h *Header) error {
	cells := nb.cells()

	prevTick := -1
	for i := 0; i < len(cells); {
		tick := cells[i].tick
		if tick < 0 {
			return fmt.Errorf("%w: negative tick %d on layer %d", ErrMalformedGrid, tick, cells[i].layer)
		}
		jump := tick - prevTick
		if jump > math.MaxUint16 {
			return fmt.Errorf("%w: gap of %d ticks before tick %d is too large to encode", ErrMalformedGrid, jump, tick)
		}
		w.u16(uint16(jump))
		prevTick = tick

		prevLayer := -1
		for ; i < len(cells) && cells[i].tick == tick; i++ {
			layer := cells[i].layer
			jump := layer - prevLayer
			if jump > math.MaxUint16 {
				return fmt.Errorf("%w: gap of %d layers before layer %d is too large to encode", ErrMalformedGrid, jump, layer)
			}
			w.u16(uint16(jump))
			prevLayer = layer
			cells[i].note.encode(w, h.Format)
		}
		w.u16(0)
	}
	w.u16(0)

	for i := 0; i < int(h.LayerCount); i++ {
		l := NewLayer()
		if i < len(nb.Layers) && nb.Layers[i] != nil {
			l = nb.Layers[i]
		}
		l.encodeInfo(w, h.Format)
	}

	if w.err != nil {
		return fmt.Errorf("writing note grid: %w", w.err)
	}
	return nil
}
