// Package cache keys shared dependency caches by the environment they were
// built for. The key is a content hash of an environment descriptor; the
// cache directory records which descriptors have been seen.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Descriptor describes a runner environment. Two environments with equal
// descriptors can share installed dependencies.
type Descriptor struct {
	Python   string            `yaml:"python" json:"python"`
	Torch    string            `yaml:"torch,omitempty" json:"torch,omitempty"`
	CUDA     string            `yaml:"cuda,omitempty" json:"cuda,omitempty"`
	Device   string            `yaml:"device,omitempty" json:"device,omitempty"`
	Packages map[string]string `yaml:"packages,omitempty" json:"packages,omitempty"`
	// Lockfiles are hashed by content, relative to the descriptor's directory.
	Lockfiles []string `yaml:"lockfiles,omitempty" json:"lockfiles,omitempty"`
}

// LoadDescriptor reads a YAML descriptor.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	if d.Python == "" {
		return nil, fmt.Errorf("descriptor %s: python version is required", path)
	}
	return &d, nil
}

// Entry is what the cache stores per key.
type Entry struct {
	Key        string     `json:"key"`
	Descriptor Descriptor `json:"descriptor"`
	CreatedAt  time.Time  `json:"created_at"`
	// Location is where the runner keeps the installed dependencies.
	Location string `json:"location,omitempty"`
}

// Cache stores entries as one JSON file per key.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory. An empty
// directory disables the cache.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key hashes a descriptor. Packages are hashed in name order and lockfiles in
// path order, so map and list ordering never change the key. baseDir resolves
// relative lockfile paths.
func Key(d *Descriptor, baseDir string) (string, error) {
	h := sha256.New()

	for _, s := range []string{d.Python, d.Torch, d.CUDA, d.Device} {
		if err := writeString(h, s); err != nil {
			return "", err
		}
	}

	names := make([]string, 0, len(d.Packages))
	for name := range d.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := writeInt(h, len(names)); err != nil {
		return "", err
	}
	for _, name := range names {
		if err := writeString(h, name); err != nil {
			return "", err
		}
		if err := writeString(h, d.Packages[name]); err != nil {
			return "", err
		}
	}

	if err := hashLockfiles(h, baseDir, d.Lockfiles); err != nil {
		return "", fmt.Errorf("hashing lockfiles: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached entry if it exists.
func (c *Cache) Get(key string) (*Entry, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		// Cache miss
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Invalid cache entry, treat as miss
		return nil, false
	}
	return &entry, true
}

// Put stores an entry under entry.Key.
func (c *Cache) Put(entry *Entry) error {
	if c.dir == "" {
		return nil
	}
	if entry.Key == "" {
		return fmt.Errorf("cache entry has no key")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}

	if err := os.WriteFile(c.cachePath(entry.Key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// List returns all readable entries, oldest first.
func (c *Cache) List() ([]*Entry, error) {
	if c.dir == "" {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing cache directory: %w", err)
	}

	var entries []*Entry
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(data, &e) != nil {
			continue
		}
		entries = append(entries, &e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// Clear removes all cached entries.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Safety check: only remove a directory that holds nothing but entries.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	if len(entries) > 0 {
		hasValidCache := false
		for _, entry := range entries {
			if entry.IsDir() {
				return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
			}
			if filepath.Ext(entry.Name()) == ".json" {
				hasValidCache = true
			} else {
				return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
			}
		}
		if !hasValidCache {
			return fmt.Errorf("no valid cache files found in directory - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Helper functions

func writeString(w io.Writer, s string) error {
	// Null byte delimiter keeps ("ab","c") and ("a","bc") apart.
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int) error {
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}

func hashLockfiles(h io.Writer, baseDir string, lockfiles []string) error {
	if len(lockfiles) == 0 {
		return nil
	}

	sorted := make([]string, len(lockfiles))
	copy(sorted, lockfiles)
	sort.Strings(sorted)

	for _, lf := range sorted {
		path := lf
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, lf)
		}
		if err := writeString(h, lf); err != nil {
			return err
		}
		if err := hashFile(h, path); err != nil {
			// A missing lockfile still changes the key through its name.
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("hashing lockfile %s: %w", lf, err)
		}
	}
	return nil
}

func hashFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	_, err = io.Copy(h, f)
	return err
}
