package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// Write stores the files of out under dir/<job>/. Files are first written to
// temporary names and renamed once all of them are on disk.
func Write(dir string, out Output) error {
	jobDir := filepath.Join(dir, out.Job)
	if err := os.MkdirAll(jobDir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", jobDir, err)
	}

	staged := make([]string, 0, len(out.Files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range out.Files {
		tmp := filepath.Join(jobDir, "."+f.Name+".tmp")
		if err := os.WriteFile(tmp, f.Content, 0o640); err != nil {
			cleanup()
			return fmt.Errorf("writing %s: %w", tmp, err)
		}
		staged = append(staged, tmp)
	}

	for i, f := range out.Files {
		if err := os.Rename(staged[i], filepath.Join(jobDir, f.Name)); err != nil {
			cleanup()
			return fmt.Errorf("installing %s: %w", f.Name, err)
		}
	}

	return nil
}

// Drift describes a rendered file that differs from the one on disk.
type Drift struct {
	File string
	Diff string
}

// Check compares freshly rendered files with the ones under dir/<job>/.
// Documents are compared structurally, so formatting and key order do not
// count as drift. A missing file is reported with an empty-document diff.
func Check(dir string, out Output) ([]Drift, error) {
	var drifts []Drift

	for _, f := range out.Files {
		path := filepath.Join(dir, out.Job, f.Name)

		existing, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			existing = nil
		} else if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		diff, err := DiffDocuments(existing, f.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if diff != "" {
			drifts = append(drifts, Drift{File: path, Diff: diff})
		}
	}

	return drifts, nil
}

// DiffDocuments returns a human readable diff between two YAML documents, or
// "" when they are structurally equal.
func DiffDocuments(existing, rendered []byte) (string, error) {
	var want, got any
	if err := yaml.Unmarshal(existing, &want); err != nil {
		return "", fmt.Errorf("decoding existing document: %w", err)
	}
	if err := yaml.Unmarshal(rendered, &got); err != nil {
		return "", fmt.Errorf("decoding rendered document: %w", err)
	}
	return cmp.Diff(want, got), nil
}
