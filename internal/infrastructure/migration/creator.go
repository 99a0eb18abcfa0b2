package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var (
	upTemplate = template.Must(template.New("up").Parse(`-- {{.Name}}
-- Created: {{.Created}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))
	downTemplate = template.Must(template.New("down").Parse(`-- Rollback of {{.Name}}
-- Created: {{.Created}}

`))
)

// File describes a generated migration pair
type File struct {
	Version     string
	Name        string
	Description string
	Created     string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// existing version in dir
func CreateMigration(dir, name, description string, now time.Time) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	for _, base := range existing {
		prefix, _, _ := strings.Cut(base, "_")
		if n, err := strconv.Atoi(prefix); err == nil && n >= next {
			next = n + 1
		}
	}

	version := fmt.Sprintf("%06d", next)
	base := version + "_" + slug
	mf := &File{
		Version:     version,
		Name:        name,
		Description: description,
		Created:     now.UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeTemplate(mf.UpPath, upTemplate, mf); err != nil {
		return nil, err
	}
	if err := writeTemplate(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeTemplate(path string, tmpl *template.Template, data *File) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

// sanitizeName lowercases name and keeps letters and digits, joining words with underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the sorted base names of the up migrations in dir
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}
