package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/mindflow/internal/models"
)

const delim = "---"

type frontmatter struct {
	ID       string    `yaml:"id,omitempty"`
	Title    *string   `yaml:"title,omitempty"`
	Type     string    `yaml:"type,omitempty"`
	Tags     *[]string `yaml:"tags,omitempty"`
	Created  time.Time `yaml:"created,omitempty"`
	Pinned   *bool     `yaml:"pinned,omitempty"`
	Archived bool      `yaml:"archived,omitempty"`
	Original *string   `yaml:"original,omitempty"`
}

// Render writes a note as Markdown with a YAML frontmatter block carrying the
// metadata. The body is the note content followed by one newline, which Parse
// removes again. Unset tags and pin flags are omitted; empty ones are kept.
func Render(n models.Note) ([]byte, error) {
	fm := frontmatter{
		ID:       n.ID,
		Title:    n.Title,
		Type:     string(n.Type),
		Created:  n.Created().UTC(),
		Pinned:   n.IsPinned,
		Archived: n.IsArchived,
		Original: n.OriginalContent,
	}
	if n.Tags != nil {
		fm.Tags = &n.Tags
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("markdown: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(head)
	buf.WriteString(delim + "\n\n")
	buf.WriteString(n.Content)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Parse reads a Markdown file back into a note. Files without frontmatter (or
// with frontmatter that is not valid YAML) become raw notes: the title is the
// first H1 heading and tags are the inline #hashtags. The returned note has no
// ID unless the frontmatter carried one.
func Parse(data []byte) (models.Note, error) {
	head, body, ok := splitFrontmatter(data)
	if !ok {
		return plainNote(string(data)), nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return plainNote(string(data)), nil
	}

	body = strings.TrimSuffix(body, "\n")
	n := models.Note{
		ID:              fm.ID,
		Title:           fm.Title,
		Content:         body,
		OriginalContent: fm.Original,
		IsArchived:      fm.Archived,
		IsPinned:        fm.Pinned,
		Type:            models.NoteType(fm.Type),
	}
	if fm.Tags != nil {
		n.Tags = *fm.Tags
	}
	if !fm.Created.IsZero() {
		n.CreatedAt = fm.Created.UnixMilli()
	}
	if !n.Type.Valid() {
		n.Type = models.TypeRaw
	}
	return n, nil
}

func plainNote(body string) models.Note {
	body = strings.TrimSuffix(body, "\n")
	n := models.Note{Content: body, Type: models.TypeRaw}
	if t := firstHeading(body); t != "" {
		n.Title = models.Ptr(t)
	}
	if tags := Hashtags(body); len(tags) > 0 {
		n.Tags = tags
	}
	return n
}

// splitFrontmatter separates a leading --- delimited block from the body. The
// line break ending the closing delimiter and one blank line after it are
// dropped; anything further belongs to the body.
func splitFrontmatter(data []byte) (head []byte, body string, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", false
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", false
	}
	after := string(rest[idx+1+len(delim):])
	for range 2 {
		if t, cut := strings.CutPrefix(after, "\r\n"); cut {
			after = t
		} else {
			after = strings.TrimPrefix(after, "\n")
		}
	}
	return rest[:idx], after, true
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
