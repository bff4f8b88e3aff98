package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"callflow/pkg/logging"
)

const subsystem = "FlowStorage"

// now is replaced in tests.
var now = time.Now

var ErrInvalidName = errors.New("invalid flow name")

// Save writes d to path atomically, bumping its version and timestamp. The
// encoding is chosen by the file extension. The saved document is returned.
func Save(path string, d Document) (Document, error) {
	f, err := FormatFor(path)
	if err != nil {
		return d, err
	}

	d.Version++
	d.UpdatedAt = now().UTC().Truncate(time.Second)
	if d.Name == "" {
		d.Name = NameFromPath(path)
	}

	data, err := Encode(d, f)
	if err != nil {
		return d, fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return d, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	// Write atomically
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return d, fmt.Errorf("failed to write %s: %w", tempFile, err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return d, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	logging.Debug(subsystem, "saved %s (version %d, %d nodes)", path, d.Version, len(d.Nodes))
	return d, nil
}

// Load reads the document at path. A missing file yields an error matching
// fs.ErrNotExist.
func Load(path string) (Document, error) {
	f, err := FormatFor(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := Decode(data, f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// NameFromPath derives a flow name from its file name.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PathFor returns the file for flow name inside dir. Names must be plain file
// names without separators.
func PathFor(dir, name string, f Format) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(dir, name+f.Ext()), nil
}

// Find locates an existing flow by name in dir, trying every format in order.
func Find(dir, name string) (string, error) {
	for _, f := range Formats() {
		p, err := PathFor(dir, name, f)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if f, err := FormatFor(name); err == nil {
		// name already carries an extension
		p, perr := PathFor(dir, NameFromPath(name), f)
		if perr == nil {
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("flow %s not found in %s: %w", name, dir, os.ErrNotExist)
}

// Entry summarizes one flow file in a directory listing.
type Entry struct {
	Path      string    `json:"path" yaml:"path"`
	Name      string    `json:"name" yaml:"name"`
	Format    Format    `json:"format" yaml:"format"`
	Version   int       `json:"version" yaml:"version"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	Nodes     int       `json:"nodes" yaml:"nodes"`
}

// List returns the flows stored in dir sorted by name. Files that fail to
// decode are skipped with a warning.
func List(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read flow directory %s: %w", dir, err)
	}

	var entries []Entry
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		f, err := FormatFor(file.Name())
		if err != nil {
			continue
		}
		path := filepath.Join(dir, file.Name())
		d, err := Load(path)
		if err != nil {
			logging.Warn(subsystem, "skipping %s: %v", path, err)
			continue
		}
		name := d.Name
		if name == "" {
			name = NameFromPath(path)
		}
		entries = append(entries, Entry{
			Path:      path,
			Name:      name,
			Format:    f,
			Version:   d.Version,
			UpdatedAt: d.UpdatedAt,
			Nodes:     len(d.Nodes),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
