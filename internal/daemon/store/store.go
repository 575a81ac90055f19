package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/logging"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const ext = ".yaml"

// SanitizeName keeps the characters of name that are safe in a file
// name: letters, digits, '-', '_' and '.'.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}

// Collection is a directory of YAML documents of type T.
type Collection[T any] struct {
	mu     sync.Mutex
	dir    string
	kind   string
	logger *logrus.Entry
}

// NewCollection returns a collection stored in dir. The directory is
// created on first save.
func NewCollection[T any](dir, kind string) *Collection[T] {
	return &Collection[T]{
		dir:    dir,
		kind:   kind,
		logger: logging.NewLogger("store").WithField("kind", kind),
	}
}

// Dir returns the directory backing the collection.
func (c *Collection[T]) Dir() string {
	return c.dir
}

// Path returns the file that stores name.
func (c *Collection[T]) Path(name string) (string, error) {
	safe := SanitizeName(name)
	if safe == "" {
		return "", errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("invalid %s name '%s'", c.kind, name))
	}
	return filepath.Join(c.dir, safe+ext), nil
}

// Save writes v under name and returns the file path. The file is
// replaced atomically.
func (c *Collection[T]) Save(name string, v *T) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.Path(name)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", c.kind, err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s directory: %w", c.kind, err)
	}

	tmp, err := os.CreateTemp(c.dir, "."+SanitizeName(name)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp %s file: %w", c.kind, err)
	}
	successful := false
	defer func() {
		if !successful {
			os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", c.kind, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", c.kind, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("activating %s: %w", c.kind, err)
	}
	successful = true

	c.logger.WithField("path", path).Infof("Saved %s %s", c.kind, name)
	return path, nil
}

// Load reads name. A missing file yields (nil, nil).
func (c *Collection[T]) Load(name string) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Warnf("%s not found: %s", c.kind, name)
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", c.kind, err)
	}
	v := new(T)
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s %s is corrupt", c.kind, name)).WithDetail("path", path)
	}
	return v, nil
}

// List returns the stored names, sorted.
func (c *Collection[T]) List() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s directory: %w", c.kind, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ext))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes name and reports whether it existed.
func (c *Collection[T]) Delete(name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.Path(name)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			c.logger.Warnf("%s not found: %s", c.kind, name)
			return false, nil
		}
		return false, fmt.Errorf("deleting %s: %w", c.kind, err)
	}
	c.logger.Infof("Deleted %s %s", c.kind, name)
	return true, nil
}

// Store groups the preset and session collections.
type Store struct {
	Presets  *Collection[Preset]
	Sessions *Collection[Session]
}

// New returns a store keeping presets and sessions in the given
// directories.
func New(presetsDir, sessionsDir string) *Store {
	return &Store{
		Presets:  NewCollection[Preset](presetsDir, "preset"),
		Sessions: NewCollection[Session](sessionsDir, "session"),
	}
}
