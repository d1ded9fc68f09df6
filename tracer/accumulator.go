package tracer

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pborman/uuid"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/digest"
	"github.com/chainstamp/ChainStamp/log"
)

// Accumulator gathers the fields and file digests of the next record.
// Fields merge last-write-wins. Files are digested the moment they are
// added; only name and digest ever reach the ledger, the path is retained
// for the local mirror alone. All methods are safe for concurrent use.
type Accumulator struct {
	mu         sync.RWMutex
	sessionID  string
	typeTag    string
	fields     map[string]interface{}
	fileHashes map[string]string
	filePaths  map[string]string
}

// NewAccumulator returns an empty accumulator carrying the given record
// type tag. The session id only correlates log lines, it is never part of
// the package.
func NewAccumulator(typeTag string) *Accumulator {
	return &Accumulator{
		sessionID:  uuid.NewRandom().String(),
		typeTag:    typeTag,
		fields:     make(map[string]interface{}),
		fileHashes: make(map[string]string),
		filePaths:  make(map[string]string),
	}
}

// SessionID returns the log correlation id of this accumulator.
func (a *Accumulator) SessionID() string {
	return a.sessionID
}

// Update merges fields into the working set, overwriting existing keys.
func (a *Accumulator) Update(fields map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range fields {
		a.fields[k] = v
	}
	log.Trace("accumulator updated", "session", a.sessionID, "merged", len(fields), "fields", len(a.fields))
}

// UpdateKV merges a single field into the working set.
func (a *Accumulator) UpdateKV(key string, value interface{}) {
	a.Update(map[string]interface{}{key: value})
}

// AddFile digests the file at path and stores it under name. An empty
// name defaults to the file's base name.
func (a *Accumulator) AddFile(name, path string) error {
	if name == "" {
		name = filepath.Base(path)
	}
	d, err := digest.File(path)
	if err != nil {
		return fmt.Errorf("add file %q: %w", name, err)
	}

	a.mu.Lock()
	a.fileHashes[name] = d.Hex()
	a.filePaths[name] = path
	a.mu.Unlock()

	log.Debug("file added", "session", a.sessionID, "name", name, "digest", d.Hex())
	return nil
}

// SetTypeTag replaces the record type tag.
func (a *Accumulator) SetTypeTag(tag string) {
	a.mu.Lock()
	a.typeTag = tag
	a.mu.Unlock()
}

// TypeTag returns the current record type tag.
func (a *Accumulator) TypeTag() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.typeTag
}

// Fields returns a copy of the user fields.
func (a *Accumulator) Fields() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]interface{}, len(a.fields))
	for k, v := range a.fields {
		out[k] = v
	}
	return out
}

// FileDigests returns a copy of the name to digest map.
func (a *Accumulator) FileDigests() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]string, len(a.fileHashes))
	for k, v := range a.fileHashes {
		out[k] = v
	}
	return out
}

// FilePaths returns a copy of the name to path map kept for the mirror.
func (a *Accumulator) FilePaths() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]string, len(a.filePaths))
	for k, v := range a.filePaths {
		out[k] = v
	}
	return out
}

// Len counts the accumulated fields and files.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.fields) + len(a.fileHashes)
}

// Reset drops all accumulated fields and files, keeping the type tag and
// session id.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fields = make(map[string]interface{})
	a.fileHashes = make(map[string]string)
	a.filePaths = make(map[string]string)
	log.Trace("accumulator reset", "session", a.sessionID)
}

// Snapshot freezes the working set into an independent package: user
// fields at the top level plus the reserved type, timestamp, file_hashes,
// recorder and previous_record_id fields. Reserved fields overwrite
// colliding user fields. The result is decoupled from the accumulator by
// a canonical round trip, which also rejects unserializable field values
// up front. An empty accumulator cannot snapshot.
func (a *Accumulator) Snapshot(recorder, previousRecordID string) (DataPackage, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.fields) == 0 && len(a.fileHashes) == 0 {
		return nil, ErrEmptyPackage
	}

	pkg := make(DataPackage, len(a.fields)+5)
	for k, v := range a.fields {
		pkg[k] = v
	}
	pkg[FieldType] = a.typeTag
	pkg[FieldTimestamp] = common.Now()
	pkg[FieldRecorder] = recorder
	if len(a.fileHashes) > 0 {
		files := make(map[string]string, len(a.fileHashes))
		for k, v := range a.fileHashes {
			files[k] = v
		}
		pkg[FieldFileHashes] = files
	}
	if previousRecordID != "" {
		pkg[FieldPrevious] = previousRecordID
	}

	canonical, err := digest.Canonical(map[string]interface{}(pkg))
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	frozen, err := DecodePackage(canonical)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return frozen, nil
}
