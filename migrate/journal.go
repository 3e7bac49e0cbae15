package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// JournalState keeps applied-migration records in a JSON file next to the
// migrations, for projects that version their migration state alongside the
// code instead of inside the database.
type JournalState struct {
	path string
}

// NewJournalState creates a journal persisted at path.
func NewJournalState(path string) *JournalState {
	return &JournalState{path: path}
}

type journalDoc struct {
	Applied []Record `json:"applied"`
}

// Init creates an empty journal file when none exists.
func (j *JournalState) Init(context.Context) error {
	if _, err := os.Stat(j.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking journal: %w", err)
	}
	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating journal directory: %w", err)
		}
	}
	return j.write(journalDoc{Applied: []Record{}})
}

// Applied returns the journal's records sorted by version.
func (j *JournalState) Applied(context.Context) ([]Record, error) {
	doc, err := j.read()
	if err != nil {
		return nil, err
	}
	sort.Slice(doc.Applied, func(a, b int) bool { return doc.Applied[a].Version < doc.Applied[b].Version })
	return doc.Applied, nil
}

// MarkApplied appends a record and rewrites the journal.
func (j *JournalState) MarkApplied(_ context.Context, r Record) error {
	doc, err := j.read()
	if err != nil {
		return err
	}
	for _, existing := range doc.Applied {
		if existing.Version == r.Version {
			return fmt.Errorf("migration %s already recorded as applied", r.Version)
		}
	}
	doc.Applied = append(doc.Applied, r)
	return j.write(doc)
}

// Remove drops the record for version and rewrites the journal.
func (j *JournalState) Remove(_ context.Context, version string) error {
	doc, err := j.read()
	if err != nil {
		return err
	}
	kept := doc.Applied[:0]
	found := false
	for _, r := range doc.Applied {
		if r.Version == version {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return fmt.Errorf("migration %s not recorded as applied", version)
	}
	doc.Applied = kept
	return j.write(doc)
}

func (j *JournalState) read() (journalDoc, error) {
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return journalDoc{}, nil
	}
	if err != nil {
		return journalDoc{}, fmt.Errorf("reading journal: %w", err)
	}
	var doc journalDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return journalDoc{}, fmt.Errorf("parsing journal: %w", err)
	}
	return doc, nil
}

func (j *JournalState) write(doc journalDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling journal: %w", err)
	}
	if err := os.WriteFile(j.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	return nil
}
