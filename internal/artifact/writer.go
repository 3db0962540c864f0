// Package artifact serializes detector results and the gatekeeping decision
// to versioned JSON files. Field names and nesting are stable across runs;
// the output hash is computed over the document minus its generated_at
// timestamp, so identical inputs reproduce identical hashes.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/evidence"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Document is the common artifact envelope.
type Document struct {
	GeneratedAt string            `json:"generated_at"`
	Period      string            `json:"period"`
	EntityScope string            `json:"entity_scope"`
	Rows        []model.Exception `json:"exceptions"`
	Summary     *model.Summary    `json:"summary,omitempty"`

	// Decision is set only on the aggregator artifact.
	Decision *model.GatekeepingDecision `json:"decision,omitempty"`
}

// hashPayload is the hashed subset of a Document: everything except the
// write-time timestamp.
type hashPayload struct {
	Period      string                     `json:"period"`
	EntityScope string                     `json:"entity_scope"`
	Rows        []model.Exception          `json:"exceptions"`
	Summary     *model.Summary             `json:"summary,omitempty"`
	Decision    *model.GatekeepingDecision `json:"decision,omitempty"`
}

// Writer writes artifacts into one output directory. The clock is injectable
// for tests.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "artifact: create output dir %s", dir)
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write serializes doc under a versioned timestamped name
// (<name>_<period>_<UTC stamp>.json) and returns the artifact path and the
// deterministic output hash.
func (w *Writer) Write(name string, doc Document) (path, hash string, err error) {
	now := w.now().UTC()
	doc.GeneratedAt = now.Format(time.RFC3339)
	if doc.Rows == nil {
		doc.Rows = []model.Exception{}
	}

	hash, err = evidence.Hash(hashPayload{
		Period:      doc.Period,
		EntityScope: doc.EntityScope,
		Rows:        doc.Rows,
		Summary:     doc.Summary,
		Decision:    doc.Decision,
	})
	if err != nil {
		return "", "", err
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", eris.Wrapf(err, "artifact: marshal %s", name)
	}

	filename := fmt.Sprintf("%s_%s_%s.json", name, doc.Period, now.Format("20060102T150405Z"))
	path = filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", "", eris.Wrapf(err, "artifact: write %s", path)
	}
	return path, hash, nil
}
