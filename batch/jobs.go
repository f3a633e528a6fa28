// Package batch drives many alignment jobs from a tabular job list.
// Items are independent, so they fan out over a small worker pool; one
// item's failure is reported and never stops the rest.
package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Job is one row of the job list. Audio and Notes are required; Labels
// and Name are optional.
type Job struct {
	Audio  string
	Notes  string
	Labels string
	Name   string
}

// CoerceName forces a usable table extension onto an output name: no
// extension or anything other than .csv/.tsv becomes .tsv.
func CoerceName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".csv" || ext == ".tsv" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".tsv"
}

// ReadJobs parses the job list at path. Tabs separate fields unless the
// file has a .csv extension.
func ReadJobs(path string) ([]Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("batch: %s is empty", path)
	}

	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	audioCol, okA := cols["audio"]
	notesCol, okN := cols["notes"]
	if !okA || !okN {
		return nil, fmt.Errorf("batch: %s must have 'audio' and 'notes' columns", path)
	}

	cell := func(rec []string, col int, ok bool) string {
		if !ok || col >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[col])
	}

	labelsCol, okL := cols["labels"]
	nameCol, okM := cols["name"]

	var jobs []Job
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		j := Job{
			Audio:  cell(rec, audioCol, true),
			Notes:  cell(rec, notesCol, true),
			Labels: cell(rec, labelsCol, okL),
			Name:   cell(rec, nameCol, okM),
		}
		if j.Audio == "" || j.Notes == "" {
			return nil, fmt.Errorf("batch: row %d of %s is missing audio or notes", len(jobs)+2, path)
		}
		if j.Name != "" {
			j.Name = CoerceName(j.Name)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
