package batch

import (
	"os"
	"strings"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
)

// ResumeFile persists the last committed cursor so a crashed or aborted
// run restarts where it left off instead of reprocessing from the start.
type ResumeFile struct {
	Path string
}

// Load reads the saved cursor. A missing file means a fresh start.
func (r *ResumeFile) Load() (string, error) {
	if r == nil || r.Path == "" {
		return "", nil
	}
	b, err := os.ReadFile(r.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.WrapIO("read", r.Path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Save writes the cursor atomically (temp file + rename), so a crash
// mid-save never leaves a truncated cursor behind.
func (r *ResumeFile) Save(cursor string) error {
	if r == nil || r.Path == "" {
		return nil
	}
	tmp := r.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(cursor+"\n"), 0o644); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, r.Path); err != nil {
		return errors.WrapIO("write", r.Path, err)
	}
	return nil
}

// Clear removes the resume file after a completed run.
func (r *ResumeFile) Clear() error {
	if r == nil || r.Path == "" {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("write", r.Path, err)
	}
	return nil
}
