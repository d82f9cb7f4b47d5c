package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/mindflow/internal/models"
	"github.com/starford/mindflow/internal/storage"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Filename returns the export file name for a note: a slug of the title
// followed by the first eight characters of the ID.
func Filename(n models.Note) string {
	short := n.ID
	if len(short) > 8 {
		short = short[:8]
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(n.TitleOr("")), "-"), "-")
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "-")
	}
	switch {
	case slug == "" && short == "":
		return "note.md"
	case slug == "":
		return short + ".md"
	case short == "":
		return slug + ".md"
	}
	return slug + "-" + short + ".md"
}

// ExportDir writes every note into dir as a Markdown file, creating dir when
// needed. Existing files with the same name are replaced.
func ExportDir(dir string, notes []models.Note) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("markdown: create export dir: %w", err)
	}
	written := 0
	for _, n := range notes {
		data, err := Render(n)
		if err != nil {
			return written, err
		}
		if err := storage.WriteFileAtomic(filepath.Join(dir, Filename(n)), data); err != nil {
			return written, fmt.Errorf("markdown: export %s: %w", n.ID, err)
		}
		written++
	}
	return written, nil
}

// ImportDir reads every .md file directly inside dir, in name order.
func ImportDir(dir string) ([]models.Note, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("markdown: read import dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []models.Note
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return out, fmt.Errorf("markdown: read %s: %w", e.Name(), err)
		}
		n, err := Parse(data)
		if err != nil {
			return out, fmt.Errorf("markdown: parse %s: %w", e.Name(), err)
		}
		out = append(out, n)
	}
	return out, nil
}
