// Package export writes the pipeline's artifacts as comma- or
// tab-separated files. The separator follows the destination extension
// (.tsv means tabs); a destination that is an existing directory receives
// a filename derived from the processed file's basename plus a suffix.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MakeFilename derives "<basename><suffix>" from a source path, e.g.
// ("recordings/k331.wav", "_aligned.csv") -> "k331_aligned.csv".
func MakeFilename(path, suffix string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}

// Resolve turns a store path into a concrete file path. An empty store
// path means the current working directory; an existing directory gets
// fnameIfDir appended.
func Resolve(storePath, fnameIfDir string) (string, error) {
	if storePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		storePath = wd
	}
	info, err := os.Stat(storePath)
	if err == nil && info.IsDir() {
		if fnameIfDir == "" {
			return "", fmt.Errorf("export: %s is a directory and no filename was derived", storePath)
		}
		return filepath.Join(storePath, fnameIfDir), nil
	}
	return storePath, nil
}

// WriteTable writes one header plus rows, choosing the separator from the
// resolved destination's extension, and returns the path written.
func WriteTable(storePath, fnameIfDir string, header []string, rows [][]string) (string, error) {
	path, err := Resolve(storePath, fnameIfDir)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		w.Comma = '\t'
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	w.Flush()
	return path, w.Error()
}

// Report prints where an artifact was stored.
func Report(what, path string) {
	fmt.Printf("Stored %s to %s\n", what, path)
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fi(v int) string {
	return strconv.Itoa(v)
}
