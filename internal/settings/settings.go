// Package settings persists small per-installation preferences as JSON values
// under fixed keys in a single file.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nhle/sprint-board/internal/model"
)

// AIKey is the key AI settings are stored under.
const AIKey = "ai-settings"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("setting not found")

// File is a JSON object on disk mapping keys to arbitrary JSON values.
type File struct {
	path string
	mu   sync.Mutex
}

// Open returns a File at path. The file is created on first write.
func Open(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) readAll() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	values := map[string]json.RawMessage{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", f.path, err)
	}
	return values, nil
}

// Get decodes the value stored under key into v.
func (f *File) Get(key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.readAll()
	if err != nil {
		return err
	}
	raw, ok := values[key]
	if !ok {
		return fmt.Errorf("getting %q: %w", key, ErrNotFound)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}
	return nil
}

// Set stores v under key, keeping other keys intact.
func (f *File) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.readAll()
	if err != nil {
		return err
	}
	values[key] = raw
	return f.writeAll(values)
}

// Delete removes key. Removing a missing key is not an error.
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.readAll()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.writeAll(values)
}

func (f *File) writeAll(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

// LoadAI returns the stored AI settings, or fallback when none are stored
// or the stored value is unusable.
func (f *File) LoadAI(fallback model.AISettings) (model.AISettings, error) {
	var s model.AISettings
	err := f.Get(AIKey, &s)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	if err := model.Validate(s); err != nil {
		return fallback, fmt.Errorf("stored AI settings: %w", err)
	}
	return s, nil
}

// SaveAI validates and stores AI settings.
func (f *File) SaveAI(s model.AISettings) error {
	if err := model.Validate(s); err != nil {
		return err
	}
	return f.Set(AIKey, s)
}
