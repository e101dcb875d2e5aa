package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrNoMatches is returned when no transcripts match the query.
	ErrNoMatches = errors.New("no transcripts found")
	// ErrManyMatches is returned when multiple transcripts match the query.
	ErrManyMatches = errors.New("multiple transcripts matched the input")
)

const (
	indexFileName      = "index.jsonl"
	lockFileName       = "index.lock"
	compactMinOps      = 256
	compactScaleFactor = 4

	opUpsert = "upsert"
	opDelete = "delete"
)

// Record is the index entry of one archived transcript. The turns themselves
// live in the transcript cache under the same ID.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Scenario  string    `json:"scenario,omitempty"`
	Speakers  []string  `json:"speakers,omitempty"`
	Turns     int       `json:"turns"`
	Failures  int       `json:"failures"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShortID is the ID truncated for display.
func (r Record) ShortID() string {
	if len(r.ID) > SHA1Short {
		return r.ID[:SHA1Short]
	}
	return r.ID
}

type indexEvent struct {
	Op     string  `json:"op"`
	ID     string  `json:"id,omitempty"`
	Record *Record `json:"record,omitempty"`
}

// DB is an append-only JSONL index of archived transcripts, shared between
// processes through a file lock.
type DB struct {
	mu             sync.RWMutex
	indexPath      string
	lock           *flock.Flock
	records        map[string]Record
	ops            int
	cleanupTempDir string
}

// Open loads the transcript index from the given directory.
//
// The special value ":memory:" creates a throwaway store in a temporary
// directory which Close removes.
func Open(ds string) (*DB, error) {
	dir, cleanupDir, err := resolveStoreDir(ds)
	if err != nil {
		return nil, fmt.Errorf("could not resolve store path: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create store directory: %w", err)
	}

	db := &DB{
		indexPath:      filepath.Join(dir, indexFileName),
		lock:           flock.New(filepath.Join(dir, lockFileName)),
		records:        make(map[string]Record),
		cleanupTempDir: cleanupDir,
	}
	if err := db.load(); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases temporary resources (used for :memory: stores).
func (db *DB) Close() error {
	if db.cleanupTempDir == "" {
		return nil
	}
	if err := os.RemoveAll(db.cleanupTempDir); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// Save upserts a record. UpdatedAt is stamped with the current time.
func (db *DB) Save(rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("Save: %w", errors.New("empty id"))
	}
	if strings.TrimSpace(rec.Title) == "" {
		return fmt.Errorf("Save: %w", errors.New("empty title"))
	}
	rec.Speakers = slices.Clone(rec.Speakers)
	rec.UpdatedAt = time.Now().UTC()

	db.mu.Lock()
	defer db.mu.Unlock()

	db.records[rec.ID] = rec
	if err := db.appendEventLocked(indexEvent{Op: opUpsert, Record: &rec}); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if err := db.compactIfNeededLocked(); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

// Delete removes a record by ID. Unknown IDs are ignored.
func (db *DB) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("Delete: %w", errors.New("empty id"))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.records[id]; !ok {
		return nil
	}
	delete(db.records, id)

	if err := db.appendEventLocked(indexEvent{Op: opDelete, ID: id}); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if err := db.compactIfNeededLocked(); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// ListOlderThan returns records last updated more than d ago, newest first.
func (db *DB) ListOlderThan(d time.Duration) []Record {
	cutoff := time.Now().Add(-d)
	return db.filter(func(r Record) bool { return r.UpdatedAt.Before(cutoff) })
}

// FindHEAD returns the most recently saved record.
func (db *DB) FindHEAD() (*Record, error) {
	list := db.List()
	if len(list) == 0 {
		return nil, fmt.Errorf("FindHEAD: %w", ErrNoMatches)
	}
	head := list[0]
	return &head, nil
}

// Completions returns shell completion candidates for IDs and titles.
func (db *DB) Completions(in string) []string {
	set := make(map[string]struct{})

	db.mu.RLock()
	for _, rec := range db.records {
		if strings.HasPrefix(rec.ID, in) {
			id := rec.ID
			if len(in) < SHA1Short {
				id = rec.ShortID()
			}
			set[fmt.Sprintf("%s\t%s", id, rec.Title)] = struct{}{}
		}
		if strings.HasPrefix(rec.Title, in) {
			set[fmt.Sprintf("%s\t%s", rec.Title, rec.ShortID())] = struct{}{}
		}
	}
	db.mu.RUnlock()

	result := make([]string, 0, len(set))
	for value := range set {
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}

// Find resolves a record by ID prefix or exact title. Inputs shorter than
// SHA1MinLen only match titles.
func (db *DB) Find(in string) (*Record, error) {
	matches := db.filter(func(r Record) bool {
		if r.Title == in {
			return true
		}
		if len(in) < SHA1MinLen {
			return false
		}
		return strings.HasPrefix(r.ID, in)
	})

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, in)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrManyMatches, in)
	}
}

// List returns every record, newest first.
func (db *DB) List() []Record {
	return db.filter(func(Record) bool { return true })
}

func (db *DB) filter(keep func(Record) bool) []Record {
	db.mu.RLock()
	out := make([]Record, 0, len(db.records))
	for _, rec := range db.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	db.mu.RUnlock()

	sortNewestFirst(out)
	return out
}

func resolveStoreDir(ds string) (dir string, cleanupDir string, err error) {
	if ds == ":memory:" {
		tempDir, err := os.MkdirTemp("", "yteam-history-*")
		if err != nil {
			return "", "", fmt.Errorf("could not create temp history directory: %w", err)
		}
		return tempDir, tempDir, nil
	}
	return ds, "", nil
}

func (db *DB) load() error {
	if err := db.lock.Lock(); err != nil {
		return fmt.Errorf("could not lock index file: %w", err)
	}
	defer func() { _ = db.lock.Unlock() }()

	file, err := os.Open(db.indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not open index file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var evt indexEvent
		if err := json.Unmarshal([]byte(text), &evt); err != nil {
			return fmt.Errorf("could not parse index line %d: %w", line, err)
		}
		if err := db.applyEvent(&evt); err != nil {
			return fmt.Errorf("index line %d: %w", line, err)
		}
		db.ops++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not scan index file: %w", err)
	}
	return nil
}

func (db *DB) applyEvent(evt *indexEvent) error {
	switch evt.Op {
	case opUpsert:
		if evt.Record == nil || strings.TrimSpace(evt.Record.ID) == "" {
			return errors.New("invalid upsert event: missing record id")
		}
		db.records[evt.Record.ID] = *evt.Record
	case opDelete:
		if strings.TrimSpace(evt.ID) == "" {
			return errors.New("invalid delete event: empty id")
		}
		delete(db.records, evt.ID)
	default:
		return fmt.Errorf("invalid index event op: %q", evt.Op)
	}
	return nil
}

func (db *DB) appendEventLocked(evt indexEvent) error {
	if err := db.lock.Lock(); err != nil {
		return fmt.Errorf("lock index: %w", err)
	}
	defer func() { _ = db.lock.Unlock() }()

	file, err := os.OpenFile(db.indexPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = file.Close() }()

	bts, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal index event: %w", err)
	}
	if _, err := file.Write(append(bts, '\n')); err != nil {
		return fmt.Errorf("write index event: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}

	db.ops++
	return nil
}

func (db *DB) compactIfNeededLocked() error {
	if db.ops < compactMinOps {
		return nil
	}
	if len(db.records) > 0 && db.ops < len(db.records)*compactScaleFactor {
		return nil
	}
	return db.compactLocked()
}

// compactLocked rewrites the index as one upsert per live record, oldest first.
func (db *DB) compactLocked() error {
	if err := db.lock.Lock(); err != nil {
		return fmt.Errorf("lock index: %w", err)
	}
	defer func() { _ = db.lock.Unlock() }()

	items := make([]Record, 0, len(db.records))
	for _, rec := range db.records {
		items = append(items, rec)
	}
	sortNewestFirst(items)
	slices.Reverse(items)

	tmpPath := db.indexPath + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open compacted index: %w", err)
	}

	enc := json.NewEncoder(file)
	for i := range items {
		if err := enc.Encode(indexEvent{Op: opUpsert, Record: &items[i]}); err != nil {
			_ = file.Close()
			return fmt.Errorf("write compacted index: %w", err)
		}
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync compacted index: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close compacted index: %w", err)
	}
	if err := os.Rename(tmpPath, db.indexPath); err != nil {
		return fmt.Errorf("replace index with compacted version: %w", err)
	}
	_ = syncDir(filepath.Dir(db.indexPath))

	db.ops = len(db.records)
	return nil
}

func syncDir(path string) error {
	d, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	return d.Sync()
}

func sortNewestFirst(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].UpdatedAt.Equal(recs[j].UpdatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
	})
}
