package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpalmerr/livesync/internal/record"
)

// DefaultArchiveCap is the number of batches an archive keeps.
const DefaultArchiveCap = 1000

// Batch is one cycle's contribution to an archive.
type Batch struct {
	SyncTimestamp time.Time
	Items         []record.Record
}

// logBatch and metricBatch are the on-disk shapes of a [Batch]. The items
// key names the stream.
type logBatch struct {
	SyncTimestamp time.Time       `json:"sync_timestamp"`
	Count         int             `json:"count"`
	Logs          []record.Record `json:"logs"`
}

type metricBatch struct {
	SyncTimestamp time.Time       `json:"sync_timestamp"`
	Count         int             `json:"count"`
	Metrics       []record.Record `json:"metrics"`
}

// AppendResult describes the archive after an [Archive.Append].
type AppendResult struct {
	// Entries is the number of batches in the archive after the append.
	Entries int

	// Evicted is the number of oldest batches dropped to honour the cap.
	Evicted int

	// Recovered is true when the existing file could not be read as an
	// archive and was replaced by an empty one.
	Recovered bool
}

// Archive is a bounded JSON array of batches stored in a single file.
//
// Each append reads the whole file, adds the batch at the end, keeps the
// newest cap entries and replaces the file. Existing entries are carried over
// without being decoded; only the new batch is encoded.
type Archive struct {
	path   string
	cap    int
	encode func(Batch) any
}

// NewLogArchive creates an archive whose batches hold items under "logs".
func NewLogArchive(path string, capacity int) *Archive {
	return newArchive(path, capacity, func(b Batch) any {
		return logBatch{SyncTimestamp: b.SyncTimestamp, Count: len(b.Items), Logs: nonNil(b.Items)}
	})
}

// NewMetricArchive creates an archive whose batches hold items under "metrics".
func NewMetricArchive(path string, capacity int) *Archive {
	return newArchive(path, capacity, func(b Batch) any {
		return metricBatch{SyncTimestamp: b.SyncTimestamp, Count: len(b.Items), Metrics: nonNil(b.Items)}
	})
}

func newArchive(path string, capacity int, encode func(Batch) any) *Archive {
	if capacity <= 0 {
		capacity = DefaultArchiveCap
	}
	return &Archive{path: path, cap: capacity, encode: encode}
}

// Path returns the archive's file path.
func (a *Archive) Path() string {
	return a.path
}

// Append adds b as the newest batch.
//
// A missing file starts an empty archive. A file that is not a JSON array is
// treated as empty, except that a single JSON object is kept as the first
// entry. Only I/O and encoding failures are returned.
func (a *Archive) Append(b Batch) (AppendResult, error) {
	p, err := a.Prepare(b)
	if err != nil {
		return AppendResult{}, err
	}
	return p.Commit()
}

// PendingAppend is an append that has been read and encoded but not yet
// written. Preparing every archive of a cycle before committing any of them
// keeps a read or encode failure from leaving one stream written and the
// other not.
type PendingAppend struct {
	path   string
	data   []byte
	result AppendResult
}

// Prepare reads the archive and encodes it with b appended, without
// touching the file. The returned append is only valid until the archive
// is next modified.
func (a *Archive) Prepare(b Batch) (*PendingAppend, error) {
	entries, recovered, err := a.load()
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(a.encode(b))
	if err != nil {
		return nil, fmt.Errorf("store: encode batch: %w", err)
	}
	entries = append(entries, encoded)

	evicted := 0
	if len(entries) > a.cap {
		evicted = len(entries) - a.cap
		entries = entries[evicted:]
	}

	data, err := encodeJSON(a.path, entries)
	if err != nil {
		return nil, err
	}

	return &PendingAppend{
		path:   a.path,
		data:   data,
		result: AppendResult{Entries: len(entries), Evicted: evicted, Recovered: recovered},
	}, nil
}

// Commit replaces the archive file with the prepared content.
func (p *PendingAppend) Commit() (AppendResult, error) {
	if err := WriteFileAtomic(p.path, p.data, 0o644); err != nil {
		return AppendResult{}, err
	}
	return p.result, nil
}

// Entries returns the raw batches currently stored, oldest first.
// A missing or malformed file yields no entries.
func (a *Archive) Entries() ([]json.RawMessage, error) {
	entries, _, err := a.load()
	return entries, err
}

// load reads the archive file. The recovered result is true when existing
// content was discarded because it did not have the archive shape.
func (a *Archive) load() (entries []json.RawMessage, recovered bool, err error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %s: %w", a.path, err)
	}

	if list, ok := decodeOr[[]json.RawMessage](data, nil); ok {
		return list, false, nil
	}
	if _, ok := decodeOr[map[string]json.RawMessage](data, nil); ok {
		return []json.RawMessage{bytes.TrimSpace(data)}, false, nil
	}
	return nil, true, nil
}

func nonNil(items []record.Record) []record.Record {
	if items == nil {
		return []record.Record{}
	}
	return items
}
