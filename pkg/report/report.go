// Package report emits the run's append-only audit artifacts. The audit
// report gets one row per processed record regardless of write outcome;
// it is the recovery and debugging surface, not the store. A separate
// no-match report lists records that created new entities, for operators
// chasing unexpected non-matches.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
)

// Row is one audit line for one processed record.
type Row struct {
	RecordID   string
	EntityID   string
	Outcome    string // merged / created
	Method     string // strongest match signal, or a derived record's own method
	Confidence string
	Before     *entity.CanonicalEntity
	After      *entity.CanonicalEntity
	// Unresolved carries the reason a record could not be matched or a
	// taxonomy classification stayed open. Empty on clean merges.
	Unresolved string
	// Ambiguous lists candidate entity IDs when the match needed a
	// manual-review marker.
	Ambiguous []string
	// Collapsed lists duplicate entity IDs deleted by this record.
	Collapsed []string
	// WriteError records a per-record write failure inside an otherwise
	// successful batch.
	WriteError string
}

var auditHeader = []string{
	"record_id", "entity_id", "outcome", "method", "confidence",
	"before", "after", "unresolved", "ambiguous_candidates",
	"collapsed_ids", "write_error",
}

// Writer appends audit rows to a CSV file. Safe for concurrent use,
// though the orchestrator's coordinator is the only intended caller.
type Writer struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewWriter opens (or creates) the audit report at path in append mode.
// The header is written only when the file is empty, so successive runs
// share one artifact.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.WrapIO("append", path, err)
	}
	w := &Writer{f: f, w: csv.NewWriter(f)}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.WrapIO("append", path, err)
	}
	if info.Size() == 0 {
		if err := w.w.Write(auditHeader); err != nil {
			_ = f.Close()
			return nil, errors.WrapIO("write", path, err)
		}
	}
	return w, nil
}

// Append writes one audit row. Rows are buffered; call Flush at page
// boundaries.
func (w *Writer) Append(r Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write([]string{
		r.RecordID,
		r.EntityID,
		r.Outcome,
		r.Method,
		r.Confidence,
		encodeEntity(r.Before),
		encodeEntity(r.After),
		r.Unresolved,
		strings.Join(r.Ambiguous, "|"),
		strings.Join(r.Collapsed, "|"),
		r.WriteError,
	})
}

// Flush forces buffered rows to disk.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

func encodeEntity(e *entity.CanonicalEntity) string {
	if e == nil {
		return ""
	}
	b, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return string(b)
}

var noMatchHeader = []string{
	"record_id", "name", "corporate_number", "prefecture", "reason",
}

// NoMatchWriter appends one line per record that matched nothing.
type NoMatchWriter struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NoMatchRow describes one unmatched record.
type NoMatchRow struct {
	RecordID        string
	Name            string
	CorporateNumber string
	Prefecture      string
	Reason          string
}

// NewNoMatchWriter opens (or creates) the no-match report at path.
func NewNoMatchWriter(path string) (*NoMatchWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.WrapIO("append", path, err)
	}
	w := &NoMatchWriter{f: f, w: csv.NewWriter(f)}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.WrapIO("append", path, err)
	}
	if info.Size() == 0 {
		if err := w.w.Write(noMatchHeader); err != nil {
			_ = f.Close()
			return nil, errors.WrapIO("write", path, err)
		}
	}
	return w, nil
}

// Append writes one no-match row.
func (w *NoMatchWriter) Append(r NoMatchRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write([]string{r.RecordID, r.Name, r.CorporateNumber, r.Prefecture, r.Reason})
}

// Flush forces buffered rows to disk.
func (w *NoMatchWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the underlying file.
func (w *NoMatchWriter) Close() error {
	if err := w.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}
