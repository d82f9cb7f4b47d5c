// Package markdown handles the Markdown side of notes: GFM task checkboxes,
// tag lists, and the frontmatter format used for export and import.
package markdown

import (
	"errors"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoSuchTask is returned when a task index is out of range.
var ErrNoSuchTask = errors.New("markdown: no such task")

var (
	md = goldmark.New(goldmark.WithExtensions(extension.TaskList))

	checkboxRe = regexp.MustCompile(`\[([ xX])\]`)
)

// Task is one GFM checkbox found in a note.
type Task struct {
	Index   int    `json:"index"`
	Line    int    `json:"line"` // zero-based line within the content
	Checked bool   `json:"checked"`
	Text    string `json:"text"`
}

// Tasks lists the checkboxes in content in document order. Checkboxes inside
// code blocks are not tasks.
func Tasks(content string) []Task {
	src := []byte(content)
	doc := md.Parser().Parse(text.NewReader(src))

	var out []Task
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		cb, ok := n.(*extast.TaskCheckBox)
		if !ok {
			return ast.WalkContinue, nil
		}
		block := cb.Parent()
		if block == nil || block.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		offset := block.Lines().At(0).Start
		lineStart := strings.LastIndexByte(content[:offset], '\n') + 1
		lineEnd := strings.IndexByte(content[offset:], '\n')
		if lineEnd < 0 {
			lineEnd = len(content)
		} else {
			lineEnd += offset
		}
		line := content[lineStart:lineEnd]
		label := ""
		if loc := checkboxRe.FindStringIndex(line); loc != nil {
			label = strings.TrimSpace(line[loc[1]:])
		}
		out = append(out, Task{
			Index:   len(out),
			Line:    strings.Count(content[:lineStart], "\n"),
			Checked: cb.IsChecked,
			Text:    label,
		})
		return ast.WalkContinue, nil
	})
	return out
}

// ToggleTask flips the checkbox with the given index and returns the new
// content. Only the first checkbox on that task's line changes; every other
// byte is preserved.
func ToggleTask(content string, index int) (string, error) {
	tasks := Tasks(content)
	if index < 0 || index >= len(tasks) {
		return "", ErrNoSuchTask
	}
	return SetTaskLine(content, tasks[index].Line, !tasks[index].Checked)
}

// SetTaskLine sets the first checkbox on the given zero-based line.
func SetTaskLine(content string, line int, checked bool) (string, error) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return "", ErrNoSuchTask
	}
	loc := checkboxRe.FindStringIndex(lines[line])
	if loc == nil {
		return "", ErrNoSuchTask
	}
	mark := " "
	if checked {
		mark = "x"
	}
	l := lines[line]
	lines[line] = l[:loc[0]] + "[" + mark + "]" + l[loc[1]:]
	return strings.Join(lines, "\n"), nil
}
