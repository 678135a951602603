package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/QEStudios/NBSCodec/nbs"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var (
		update        bool
		dump          bool
		quiet         bool
		outPath       string
		targetVersion int
	)
	pflag.BoolVarP(&update, "update", "u", false, "recompute song length and layer count before writing")
	pflag.BoolVarP(&dump, "dump", "d", false, "dump the decoded song structure")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	pflag.StringVarP(&outPath, "out", "o", "", "write the song to this path")
	pflag.IntVarP(&targetVersion, "format", "f", -1, "target format when writing: 0 for classic, 1-4 for OpenNoteBlockStudio, -1 to keep")
	pflag.Parse()

	target, convert, err := parseTargetFormat(targetVersion)
	if err != nil {
		logger.Fatalf("invalid --format: %v", err)
	}

	// Get the path of the NBS file.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Fatalf("error opening file: %v", err)
	}
	defer file.Close()

	decodeLogger := logger
	if quiet {
		decodeLogger = log.New(io.Discard, "", 0)
	}

	d := nbs.NewDecoder(bufio.NewReader(file), decodeLogger)
	song, err := d.Decode()
	if err != nil {
		logger.Fatalf("decode error: %v", err)
	}

	if warnings := d.Warnings(); len(warnings) > 0 && !quiet {
		logger.Println("Warnings produced while decoding file:")
		for _, warning := range warnings {
			logger.Printf("%v", warning)
		}
	}

	if dump {
		spew.Dump(song)
	} else if !quiet {
		fmt.Println(song)
	}

	if outPath == "" && !update && !convert {
		return
	}

	if convert {
		if err := song.Convert(target); err != nil {
			logger.Fatalf("convert error: %v", err)
		}
	}
	if update {
		song.Update()
	}

	dest := outputPath(path, outPath)
	if err := writeSong(dest, song, decodeLogger); err != nil {
		logger.Fatalf("error writing output file: %v", err)
	}
	if !quiet {
		logger.Printf("Wrote %s", dest)
	}
}

// parseTargetFormat maps the --format flag onto a format. convert is false when the song
// should keep the format it was read in.
func parseTargetFormat(v int) (format nbs.Format, convert bool, err error) {
	switch {
	case v < 0:
		return nbs.Format{}, false, nil
	case v == 0:
		return nbs.ClassicFormat(), true, nil
	case v <= nbs.MaxOpenVersion:
		return nbs.OpenFormat(uint8(v)), true, nil
	default:
		return nbs.Format{}, false, fmt.Errorf("%w: %d", nbs.ErrUnsupportedVersion, v)
	}
}

// outputPath returns the explicit output path, or a sibling of the input named <name>.out.nbs.
func outputPath(inPath, outPath string) string {
	if outPath != "" {
		return outPath
	}
	ext := filepath.Ext(inPath)
	return strings.TrimSuffix(inPath, ext) + ".out.nbs"
}

// writeSong encodes the song into a temporary file next to dest and renames it into place,
// so a failed encode never leaves a half-written song behind.
func writeSong(dest string, song *nbs.Song, logger *log.Logger) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".nbstool-*.nbs")
	if err != nil {
		return fmt.Errorf("cannot create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := nbs.NewEncoder(tmp, logger).Encode(song); err != nil {
		tmp.Close()
		return fmt.Errorf("encode error: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("cannot move output into place: %w", err)
	}
	return nil
}

// choosePath picks the song to open: the first argument if there is one, otherwise
// whatever the user selects in a file dialog. dialog.ErrCancelled means nothing was picked.
func choosePath(cwd string, args []string) (string, error) {
	if len(args) > 0 {
		return resolveSong(args[0], "argument")
	}

	path, err := dialog.
		File().
		Title("Open Note Block Studio song").
		Filter("Note Block Studio songs (*.nbs)", "nbs").
		SetStartDir(cwd).
		Load()
	if err != nil {
		return "", err
	}
	// Some dialog backends report a closed window as an empty selection.
	if path == "" {
		return "", dialog.ErrCancelled
	}
	return resolveSong(path, "dialog selection")
}

// resolveSong makes path absolute and checks it names a song file.
func resolveSong(path, source string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", source, path, err)
	}
	if err := validatePath(abs); err != nil {
		return "", fmt.Errorf("%s %q: %w", source, path, err)
	}
	return abs, nil
}

// validatePath rejects anything that isn't an existing regular file with an .nbs extension.
func validatePath(p string) error {
	if !strings.EqualFold(filepath.Ext(p), ".nbs") {
		return fmt.Errorf("%s is not an .nbs song", filepath.Base(p))
	}
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filepath.Base(p))
	}
	return nil
}
