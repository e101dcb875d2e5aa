package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dotcommander/yteam/internal/proto"
	"github.com/dotcommander/yteam/internal/storage/cache"
)

// Archive keeps finished transcripts: metadata in the JSONL index, turns in
// the transcript cache.
type Archive struct {
	db          *DB
	transcripts *cache.Cache[proto.Transcript]
}

// OpenArchive opens (or creates) an archive rooted at dir.
func OpenArchive(dir string) (*Archive, error) {
	db, err := Open(dir)
	if err != nil {
		return nil, err
	}
	transcripts, err := cache.New[proto.Transcript](dir, cache.TranscriptCache)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db, transcripts: transcripts}, nil
}

// Close releases the index.
func (a *Archive) Close() error { return a.db.Close() }

// Save stores tr under a new ID and returns its index record. A transcript
// without a title is filed under its scenario name.
func (a *Archive) Save(tr proto.Transcript) (Record, error) {
	rec := Record{
		ID:       NewID(),
		Title:    tr.Title,
		Scenario: tr.Scenario,
		Speakers: tr.Speakers(),
		Turns:    len(tr.Turns),
		Failures: tr.Failures(),
	}
	if rec.Title == "" {
		rec.Title = tr.Scenario
	}
	if err := a.transcripts.Put(rec.ID, tr); err != nil {
		return Record{}, fmt.Errorf("save transcript: %w", err)
	}
	if err := a.db.Save(rec); err != nil {
		_ = a.transcripts.Delete(rec.ID)
		return Record{}, fmt.Errorf("save transcript: %w", err)
	}
	head, err := a.db.Find(rec.ID)
	if err != nil {
		return Record{}, err
	}
	return *head, nil
}

// Load resolves in as Find does and returns the record with its transcript.
// An empty input selects the most recent transcript.
func (a *Archive) Load(in string) (Record, proto.Transcript, error) {
	var (
		rec *Record
		err error
	)
	if in == "" {
		rec, err = a.db.FindHEAD()
	} else {
		rec, err = a.db.Find(in)
	}
	if err != nil {
		return Record{}, proto.Transcript{}, err
	}
	tr, err := a.transcripts.Get(rec.ID)
	if err != nil {
		return *rec, proto.Transcript{}, fmt.Errorf("load transcript %s: %w", rec.ShortID(), err)
	}
	return *rec, tr, nil
}

// Find resolves a record without reading its transcript.
func (a *Archive) Find(in string) (Record, error) {
	rec, err := a.db.Find(in)
	if err != nil {
		return Record{}, err
	}
	return *rec, nil
}

// List returns all records, newest first.
func (a *Archive) List() []Record { return a.db.List() }

// OlderThan returns records last updated more than d ago.
func (a *Archive) OlderThan(d time.Duration) []Record { return a.db.ListOlderThan(d) }

// Completions returns shell completion candidates.
func (a *Archive) Completions(in string) []string { return a.db.Completions(in) }

// Delete removes a record and its transcript. A transcript file that is
// already gone is not an error.
func (a *Archive) Delete(id string) error {
	if err := a.transcripts.Delete(id); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return a.db.Delete(id)
}
