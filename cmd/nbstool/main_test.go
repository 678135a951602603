package main

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/QEStudios/NBSCodec/nbs"
)

func TestParseTargetFormat(t *testing.T) {
	tests := []struct {
		in      int
		want    nbs.Format
		convert bool
		wantErr bool
	}{
		{-1, nbs.Format{}, false, false},
		{0, nbs.ClassicFormat(), true, false},
		{1, nbs.OpenFormat(1), true, false},
		{4, nbs.OpenFormat(4), true, false},
		{5, nbs.Format{}, false, true},
	}
	for _, tt := range tests {
		got, convert, err := parseTargetFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, nbs.ErrUnsupportedVersion) {
				t.Errorf("%d: expected ErrUnsupportedVersion, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want || convert != tt.convert {
			t.Errorf("%d: expected %v (convert %v), got %v (convert %v), err %v", tt.in, tt.want, tt.convert, got, convert, err)
		}
	}
}

func TestOutputPath(t *testing.T) {
	if got := outputPath("/songs/tune.nbs", ""); got != "/songs/tune.out.nbs" {
		t.Errorf("unexpected default output path %q", got)
	}
	if got := outputPath("/songs/tune.nbs", "/tmp/x.nbs"); got != "/tmp/x.nbs" {
		t.Errorf("expected the explicit path, got %q", got)
	}
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "tune.NBS")
	if err := os.WriteFile(song, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validatePath(song); err != nil {
		t.Errorf("expected %s to be valid, got %v", song, err)
	}
	if err := validatePath(filepath.Join(dir, "missing.nbs")); err == nil {
		t.Error("expected a missing file to be rejected")
	}
	if err := validatePath(filepath.Join(dir, "tune.txt")); err == nil {
		t.Error("expected a non-.nbs file to be rejected")
	}
	folder := filepath.Join(dir, "album.nbs")
	if err := os.Mkdir(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := validatePath(folder); err == nil {
		t.Error("expected a directory to be rejected")
	}
}

func TestChoosePathFromArgs(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "tune.nbs")
	if err := os.WriteFile(song, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := choosePath(dir, []string{song, "ignored.nbs"})
	if err != nil || got != song {
		t.Errorf("expected %s, got %q (%v)", song, got, err)
	}
	if _, err := choosePath(dir, []string{filepath.Join(dir, "missing.nbs")}); err == nil {
		t.Error("expected a missing argument to be rejected")
	}
}

func TestWriteSong(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.nbs")
	quiet := log.New(io.Discard, "", 0)

	song := nbs.NewSong(nbs.OpenFormat(4))
	song.Header.Name = "written"
	song.NoteBlocks.Layer(1).SetNote(3, nbs.NewNote(nbs.Pling, 50))
	song.Update()

	if err := writeSong(dest, song, quiet); err != nil {
		t.Fatalf("failed to write song: %v", err)
	}
	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := nbs.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode written song: %v", err)
	}
	if !got.Equal(song) {
		t.Errorf("written song differs from the original")
	}

	// A failing encode leaves the previous file untouched and no temporary files behind.
	bad := nbs.NewSong(nbs.ClassicFormat())
	if err := writeSong(dest, bad, quiet); err == nil {
		t.Fatal("expected an empty classic song to fail")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.nbs" {
		t.Errorf("expected only out.nbs in %s, got %v", dir, entries)
	}
}
