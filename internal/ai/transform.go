package ai

import (
	"context"
	"encoding/json"
	"strings"
)

// Transformation is the outcome of a structured call. Fallback marks a reply
// that did not decode as the expected JSON object; Content then holds the raw
// reply verbatim and Title and Tags are empty.
type Transformation struct {
	Title    string
	Content  string
	Tags     []string
	Fallback bool
}

// Gateway derives the note transformations from a Completer.
type Gateway struct {
	c Completer
}

// NewGateway creates a gateway over c.
func NewGateway(c Completer) *Gateway {
	return &Gateway{c: c}
}

// MagicFormat restructures raw text into categorized Markdown.
func (g *Gateway) MagicFormat(ctx context.Context, text string) (Transformation, error) {
	return g.structured(ctx, magicFormatPrompt, text)
}

// Summarize condenses text into an overview plus key points.
func (g *Gateway) Summarize(ctx context.Context, text string) (Transformation, error) {
	return g.structured(ctx, summarizePrompt, text)
}

// RewriteTone rewrites text in the given tone, keeping meaning and language.
func (g *Gateway) RewriteTone(ctx context.Context, text, tone string) (string, error) {
	out, err := g.c.Complete(ctx, []Message{
		{Role: RoleSystem, Content: toneRewritePrompt(tone)},
		{Role: RoleUser, Content: text},
	}, Options{Temperature: DefaultTemperature})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Gateway) structured(ctx context.Context, prompt, text string) (Transformation, error) {
	out, err := g.c.Complete(ctx, []Message{
		{Role: RoleSystem, Content: prompt},
		{Role: RoleUser, Content: text},
	}, Options{Temperature: StructuredTemperature, JSON: true})
	if err != nil {
		return Transformation{}, err
	}
	return DecodeTransformation(out), nil
}

type structuredReply struct {
	Title    string   `json:"title"`
	Markdown string   `json:"markdown"`
	Tags     []string `json:"tags"`
}

// DecodeTransformation parses a structured reply. Code fences around the JSON
// are removed first. A reply that still does not decode to an object becomes a fallback
// Transformation carrying the raw text.
func DecodeTransformation(raw string) Transformation {
	cleaned := StripCodeFences(raw)

	// A JSON null leaves reply nil; only an object counts as structured.
	var reply *structuredReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil || reply == nil {
		return Transformation{Content: raw, Tags: []string{}, Fallback: true}
	}

	content := reply.Markdown
	if content == "" {
		content = cleaned
	}
	tags := reply.Tags
	if tags == nil {
		tags = []string{}
	}
	return Transformation{Title: reply.Title, Content: content, Tags: tags}
}

// StripCodeFences removes every ```json and ``` marker and trims the result.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
