package nbs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"math"
	"slices"
	"strings"
	"time"
)

// Song is a whole NBS file: the header, the note grid with its layers, and the custom instruments.
type Song struct {
	Header      Header
	NoteBlocks  NoteBlocks
	Instruments CustomInstruments
}

// NewSong returns an empty song in the given format with the editor's default header values.
func NewSong(format Format) *Song {
	return &Song{
		Header:      NewHeader(format),
		Instruments: CustomInstruments{},
	}
}

// FromComponents assembles a song from parts built by the caller.
// Call Update before encoding if the header's summary fields may be out of date.
func FromComponents(header Header, noteBlocks NoteBlocks, instruments CustomInstruments) *Song {
	return &Song{
		Header:      header,
		NoteBlocks:  noteBlocks,
		Instruments: instruments,
	}
}

// Format returns the format the song is encoded in.
func (s *Song) Format() Format {
	return s.Header.Format
}

// Update recomputes the header fields derived from the note grid: SongLength becomes the
// highest occupied tick plus one and LayerCount the number of layers. Both saturate at 65535.
// Nothing else in the header is touched.
//
// A classic song without notes ends up with SongLength 0, which the classic layout can't
// store: its marker would read back as OpenNoteBlockStudio, so Encode fails with
// ErrMalformedHeader. Add a note or Convert to an OpenNoteBlockStudio format first.
func (s *Song) Update() {
	s.Header.SongLength = uint16(min(s.NoteBlocks.Length(), math.MaxUint16))
	s.Header.LayerCount = uint16(min(len(s.NoteBlocks.Layers), math.MaxUint16))
}

// Convert retargets the song to another format. Fields the new format lacks are dropped
// when encoding; fields it gains keep whatever value the song already holds.
func (s *Song) Convert(format Format) error {
	if err := format.Validate(); err != nil {
		return err
	}
	if format.IsOpen() && !s.Header.Format.IsOpen() {
		s.Header.VanillaInstrumentCount = ClassicVanillaInstrumentCount
	}
	s.Header.Format = format
	return nil
}

// Ticks returns the length of the note grid in ticks.
func (s *Song) Ticks() int {
	return s.NoteBlocks.Length()
}

// Duration returns how long the note grid plays for at the header's tempo.
func (s *Song) Duration() time.Duration {
	return ticksToDuration(s.Ticks(), s.Header.Tempo)
}

// Equal reports whether two songs hold the same header, notes, layers and instruments.
func (s *Song) Equal(other *Song) bool {
	return s.Header == other.Header &&
		s.NoteBlocks.Equal(&other.NoteBlocks) &&
		slices.Equal(s.Instruments, other.Instruments)
}

// DecodeWarning is a non-fatal oddity found while decoding.
type DecodeWarning struct {
	Offset  int64
	Message string
}

func (dw DecodeWarning) String() string {
	return fmt.Sprintf("offset %d: %s", dw.Offset, dw.Message)
}

// Decoder reads a single song from a stream.
type Decoder struct {
	r      *reader
	logger *log.Logger

	// Collect any warnings whilst decoding.
	warnings []DecodeWarning

	// Decoding can only be done once per Decoder.
	used bool
}

// NewDecoder creates a decoder reading from r. A nil logger uses log.Default().
// The decoder reads exactly the bytes of one song; anything after it is left in r.
// Wrap slow unbuffered sources in a bufio.Reader if that doesn't matter to the caller.
func NewDecoder(r io.Reader, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Decoder{
		r:      newReader(r),
		logger: logger,
	}
}

func (d *Decoder) addWarning(format string, args ...any) {
	d.warnings = append(d.warnings, DecodeWarning{
		Offset:  d.r.offset,
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnings returns the warnings gathered by Decode.
func (d *Decoder) Warnings() []DecodeWarning {
	return d.warnings
}

// Decode reads the header, the note grid and layers, and the custom instruments, in that order.
// On error no song is returned.
func (d *Decoder) Decode() (*Song, error) {
	if d.used {
		return nil, fmt.Errorf("decoder already used")
	}
	d.used = true

	format, marker, err := detectFormat(d.r)
	if err != nil {
		return nil, err
	}
	d.logger.Printf("%v detected", format)

	header, err := decodeHeader(d.r, format, marker)
	if err != nil {
		return nil, err
	}

	noteBlocks, err := decodeNoteBlocks(d.r, &header)
	if err != nil {
		return nil, err
	}
	// Versions 1 and 2 don't store the song length.
	if format.IsOpen() && !format.Supports(3) {
		header.SongLength = uint16(min(noteBlocks.Length(), math.MaxUint16))
	}

	instruments, err := decodeCustomInstruments(d.r, format)
	if err != nil {
		return nil, err
	}

	song := FromComponents(header, noteBlocks, instruments)
	d.check(song)
	return song, nil
}

// check records warnings for things a well-behaved editor wouldn't have written.
func (d *Decoder) check(s *Song) {
	h := &s.Header
	if n := len(s.NoteBlocks.Layers); n > int(h.LayerCount) {
		d.addWarning("header declares %d layers but notes reach layer %d", h.LayerCount, n-1)
	}
	if !h.Format.IsOpen() || h.Format.Supports(3) {
		if length := s.Ticks(); length > int(h.SongLength) {
			d.addWarning("header song length %d is shorter than the note grid (%d ticks)", h.SongLength, length)
		}
	}

	for index, l := range s.NoteBlocks.Layers {
		for _, tick := range l.Ticks() {
			n, _ := l.Note(tick)
			if !n.InKeyRange() {
				d.addWarning("note at tick %d, layer %d has key %d outside %d..%d", tick, index, n.Key, MinKey, MaxKey)
			}
			if i, ok := h.CustomInstrumentIndex(uint8(n.Instrument)); ok && i >= len(s.Instruments) {
				d.addWarning("note at tick %d, layer %d uses custom instrument %d but only %d are defined", tick, index, i, len(s.Instruments))
			}
		}
	}
}

// Encoder writes songs to a stream.
type Encoder struct {
	w      io.Writer
	logger *log.Logger
}

// NewEncoder creates an encoder writing to w. A nil logger uses log.Default().
func NewEncoder(w io.Writer, logger *log.Logger) *Encoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Encoder{w: w, logger: logger}
}

// Encode writes the song in the layout of s.Header.Format. The header's summary fields are
// written as they are; call Song.Update first if the grid has been edited.
// On error a prefix of the song may already have been written.
func (e *Encoder) Encode(s *Song) error {
	bw := bufio.NewWriter(e.w)
	w := newWriter(bw)

	if err := s.Header.encode(w); err != nil {
		return err
	}
	if err := s.NoteBlocks.encode(w, &s.Header); err != nil {
		return err
	}
	if err := s.Instruments.encode(w, s.Header.Format); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: flushing song: %w", ErrIO, err)
	}

	e.logger.Printf("Wrote %d bytes (%v, %d notes on %d layers)", w.n, s.Header.Format, s.NoteBlocks.NoteCount(), s.Header.LayerCount)
	return nil
}

var discard = log.New(io.Discard, "", 0)

// Decode reads a song from r without logging.
func Decode(r io.Reader) (*Song, error) {
	return NewDecoder(r, discard).Decode()
}

// DecodeBytes reads a song from an in-memory buffer.
func DecodeBytes(b []byte) (*Song, error) {
	return Decode(bytes.NewReader(b))
}

// Encode writes the song to w without logging.
func (s *Song) Encode(w io.Writer) error {
	return NewEncoder(w, discard).Encode(s)
}

// EncodeBytes returns the encoded song.
func (s *Song) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatLayerTable lays the layers out as a table, one row per layer.
func formatLayerTable(s *Song, indent int) string {
	headers := []string{"#", "Name", "Notes", "Volume", "Stereo", "Locked"}
	rows := make([][]string, 0, len(s.NoteBlocks.Layers))
	for i, l := range s.NoteBlocks.Layers {
		if l == nil {
			l = NewLayer()
		}
		rows = append(rows, []string{
			fmt.Sprint(i),
			l.Name,
			fmt.Sprint(l.Len()),
			fmt.Sprint(l.Volume),
			fmt.Sprint(l.Stereo),
			fmt.Sprint(l.Locked),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
		for _, row := range rows {
			widths[i] = max(widths[i], len(row[i]))
		}
	}

	padRight := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	var b strings.Builder
	separator := func() {
		b.WriteString(strings.Repeat(" ", indent))
		for _, w := range widths {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", w+2))
		}
		b.WriteString("+\n")
	}
	line := func(cells []string) {
		b.WriteString(strings.Repeat(" ", indent))
		for i, cell := range cells {
			b.WriteString("| ")
			b.WriteString(padRight(cell, widths[i]))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}

	separator()
	line(headers)
	separator()
	for _, row := range rows {
		line(row)
	}
	separator()
	return b.String()
}

// Pretty-print
func (s *Song) String() string {
	h := &s.Header
	var b strings.Builder
	fmt.Fprintf(&b, "NBS Song (%v):\n", h.Format)
	fmt.Fprintf(&b, "- Name: %s\n", h.Name)
	fmt.Fprintf(&b, "- Author: %s\n", h.Author)
	if h.OriginalAuthor != "" {
		fmt.Fprintf(&b, "- Original author: %s\n", h.OriginalAuthor)
	}
	if h.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", h.Description)
	}
	fmt.Fprintf(&b, "- Tempo: %.2f ticks/s\n", h.TicksPerSecond())
	fmt.Fprintf(&b, "- Time signature: %d/4\n", h.TimeSignature)
	fmt.Fprintf(&b, "- Length: %d ticks (%v)\n", s.Ticks(), s.Duration().Round(time.Millisecond))
	if h.Format.Supports(4) && h.Loop {
		fmt.Fprintf(&b, "- Loops from tick %d", h.LoopStartTick)
		if h.MaxLoopCount == 0 {
			b.WriteString(" forever\n")
		} else {
			fmt.Fprintf(&b, " %d times\n", h.MaxLoopCount)
		}
	}
	if h.ImportedFileName != "" {
		fmt.Fprintf(&b, "- Imported from: %s\n", h.ImportedFileName)
	}

	fmt.Fprintf(&b, "- Layers (%d, %d notes):\n", len(s.NoteBlocks.Layers), s.NoteBlocks.NoteCount())
	if len(s.NoteBlocks.Layers) > 0 {
		b.WriteString(formatLayerTable(s, 4))
	}

	if len(s.Instruments) > 0 {
		fmt.Fprintf(&b, "- Custom instruments (%d):\n", len(s.Instruments))
		for i, ci := range s.Instruments {
			fmt.Fprintf(&b, "    - #%d %s (%s, key %d)\n", int(h.vanillaInstruments())+i, ci.Name, ci.File, ci.Pitch)
		}
	}
	return b.String()
}
