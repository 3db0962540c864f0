// Package evidence maintains the append-only provenance log: every detector
// invocation registers the exact source rows it read (EvidenceRef) followed
// by the reproducible computation it performed (DeterministicRun). Log lines
// are newline-delimited JSON; content hashes are SHA-256 over a canonical
// serialization so reruns with identical inputs hash identically across
// platforms.
package evidence

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Hash returns the hex SHA-256 of the canonical JSON serialization of v.
// Struct field order is fixed by declaration and map keys are sorted by the
// encoder, so the result is stable across runs and platforms. Callers must
// not include timestamps or run ids in v.
func Hash(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "evidence: marshal hash payload")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// logLine is one audit log entry. Type is "evidence" or "deterministic"; the
// timestamp is added at write time per the audit log contract.
type logLine struct {
	Type      string                  `json:"type"`
	Timestamp time.Time               `json:"timestamp"`
	Evidence  *model.EvidenceRef      `json:"evidence,omitempty"`
	Run       *model.DeterministicRun `json:"deterministic,omitempty"`
}

// Recorder appends provenance records to the audit log. Appends are
// serialized behind a mutex so detectors may run concurrently against one
// Recorder.
type Recorder struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewRecorder opens (creating if needed) the audit log at path.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "evidence: open audit log %s", path)
	}
	if err := f.Close(); err != nil {
		return nil, eris.Wrap(err, "evidence: close audit log")
	}
	return &Recorder{path: path, now: time.Now}, nil
}

// Path returns the audit log path.
func (r *Recorder) Path() string { return r.path }

// RecordEvidence registers the source rows a computation consumed. Assigns
// the ref a fresh id and content hash when absent, and returns the stored
// ref.
func (r *Recorder) RecordEvidence(ref model.EvidenceRef) (model.EvidenceRef, error) {
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	if ref.ContentHash == "" {
		h, err := Hash(struct {
			SourceURI string   `json:"source_uri"`
			RowIDs    []string `json:"row_ids"`
		}{ref.SourceURI, ref.RowIDs})
		if err != nil {
			return model.EvidenceRef{}, err
		}
		ref.ContentHash = h
	}
	ref.Timestamp = r.now().UTC()
	if err := r.append(logLine{Type: "evidence", Timestamp: ref.Timestamp, Evidence: &ref}); err != nil {
		return model.EvidenceRef{}, err
	}
	return ref, nil
}

// RecordRun registers one deterministic computation. Must be called after
// the corresponding RecordEvidence so log ordering matches the provenance
// contract.
func (r *Recorder) RecordRun(run model.DeterministicRun) error {
	run.Timestamp = r.now().UTC()
	return r.append(logLine{Type: "deterministic", Timestamp: run.Timestamp, Run: &run})
}

func (r *Recorder) append(line logLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := json.Marshal(line)
	if err != nil {
		return eris.Wrap(err, "evidence: marshal log line")
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "evidence: open audit log %s", r.path)
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return eris.Wrap(err, "evidence: append log line")
	}
	return nil
}

// ReadLog parses every line of an audit log. Used by the audit CLI and by
// tests; the engine itself never reads the log back.
func ReadLog(path string) ([]map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "evidence: read audit log %s", path)
	}
	var out []map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, eris.Wrap(err, "evidence: decode log line")
		}
		out = append(out, m)
	}
	return out, nil
}
