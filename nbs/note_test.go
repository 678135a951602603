package nbs

import (
	"bytes"
	"testing"
)

func TestNoteEncodingPerVersion(t *testing.T) {
	n := Note{Instrument: Xylophone, Key: 45, Velocity: 80, Panning: 150, Pitch: -25}

	tests := []struct {
		format Format
		want   []byte
	}{
		{ClassicFormat(), []byte{byte(Xylophone), 45}},
		{OpenFormat(3), []byte{byte(Xylophone), 45}},
		{OpenFormat(4), []byte{byte(Xylophone), 45, 80, 150, 0xE7, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			n.encode(newWriter(&buf), tt.format)
			if !bytes.Equal(buf.Bytes(), tt.want) {
				t.Fatalf("expected % x, got % x", tt.want, buf.Bytes())
			}

			got, err := decodeNote(newReader(&buf), tt.format)
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			want := n
			if !tt.format.Supports(4) {
				want.Velocity, want.Panning, want.Pitch = DefaultVelocity, DefaultPanning, DefaultPitch
			}
			if got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
		})
	}
}

func TestNoteKeepsOutOfRangeKey(t *testing.T) {
	n := NewNote(Piano, -3)
	if n.InKeyRange() {
		t.Error("expected key -3 to be outside the keyboard")
	}
	var buf bytes.Buffer
	n.encode(newWriter(&buf), OpenFormat(4))
	got, err := decodeNote(newReader(&buf), OpenFormat(4))
	if err != nil || got.Key != -3 {
		t.Errorf("expected key -3 to survive, got %d (%v)", got.Key, err)
	}
}

func TestInstrumentString(t *testing.T) {
	if Pling.String() != "Pling" || IronXylophone.String() != "Iron Xylophone" {
		t.Errorf("unexpected names %q, %q", Pling, IronXylophone)
	}
	if Instrument(20).String() != "Instrument(20)" {
		t.Errorf("unexpected name for a custom id: %q", Instrument(20))
	}
}
