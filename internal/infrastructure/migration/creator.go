package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	migrationFile = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)
	nonWord       = regexp.MustCompile(`[^a-z0-9]+`)
)

// File is one migration pair on disk
type File struct {
	Version  uint64
	Name     string
	UpPath   string
	DownPath string
}

// List returns the migrations in dir in version order. A missing dir is
// empty.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byVersion := map[uint64]*File{}
	for _, e := range entries {
		m := migrationFile.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		v, _ := strconv.ParseUint(m[1], 10, 64)
		f, ok := byVersion[v]
		if !ok {
			f = &File{Version: v, Name: m[2]}
			byVersion[v] = f
		}
		path := filepath.Join(dir, e.Name())
		if m[3] == "up" {
			f.UpPath = path
		} else {
			f.DownPath = path
		}
	}

	files := make([]File, 0, len(byVersion))
	for _, f := range byVersion {
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// Create writes an empty up/down pair numbered after the newest migration
func Create(dir, name string) (*File, error) {
	slug := strings.Trim(nonWord.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return nil, fmt.Errorf("invalid migration name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations dir: %w", err)
	}
	existing, err := List(dir)
	if err != nil {
		return nil, err
	}

	var next uint64 = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}
	base := fmt.Sprintf("%06d_%s", next, slug)
	f := &File{
		Version:  next,
		Name:     slug,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}
	for _, p := range []string{f.UpPath, f.DownPath} {
		header := fmt.Sprintf("-- %s\n\n", filepath.Base(p))
		if err := os.WriteFile(p, []byte(header), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
	}
	return f, nil
}
