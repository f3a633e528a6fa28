package util

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

// SortedKeys returns a map's keys in ascending order.
func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// GatherAlignedNotePaths walks a directory for aligned note tables
// (*.notes.tsv). With recursive false only the top level is scanned.
func GatherAlignedNotePaths(root string, recursive bool) ([]string, error) {
	var res []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".notes.tsv") {
			res = append(res, path)
		}
		return nil
	})
	sort.Strings(res)
	return res, err
}
