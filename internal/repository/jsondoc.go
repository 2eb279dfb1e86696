package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// document is a JSON file holding a top-level array of T. Every mutation
// runs under the document mutex as a full read-modify-write, and writes are
// atomic replacements so a crash never leaves a torn document.
type document[T any] struct {
	mu   sync.Mutex
	path string
}

// openDocument returns the document at path, creating it as an empty array
// if it does not exist yet.
func openDocument[T any](path string) (*document[T], error) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}

	d := &document[T]{path: path}

	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = d.write(nil)
		if err != nil {
			return nil, err
		}
		slog.Info("created document", "path", path)
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}

	return d, nil
}

// snapshot reads the whole document.
func (d *document[T]) snapshot() ([]T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

// update runs fn against the current contents and persists what it returns.
// If fn fails nothing is written.
func (d *document[T]) update(fn func(items []T) ([]T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := d.read()
	if err != nil {
		return err
	}

	items, err = fn(items)
	if err != nil {
		return err
	}

	return d.write(items)
}

func (d *document[T]) read() ([]T, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(d.path), err)
	}

	var items []T
	if len(bytes.TrimSpace(data)) == 0 {
		return items, nil
	}
	err = json.Unmarshal(data, &items)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", filepath.Base(d.path), err)
	}
	return items, nil
}

func (d *document[T]) write(items []T) error {
	if items == nil {
		items = []T{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(d.path), err)
	}

	err = atomic.WriteFile(d.path, &buf)
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(d.path), err)
	}
	return nil
}
