package ai

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type stubCompleter struct {
	reply string
	err   error
	got   []Message
	opts  Options
}

func (s *stubCompleter) Complete(_ context.Context, messages []Message, opts Options) (string, error) {
	s.got = messages
	s.opts = opts
	return s.reply, s.err
}

const plainReply = `{"title":"Errands","markdown":"- [ ] Buy milk\n- **4:00 PM**: Dentist","tags":["Shopping","Health"]}`

func TestDecodeTransformation_Plain(t *testing.T) {
	got := DecodeTransformation(plainReply)
	want := Transformation{
		Title:   "Errands",
		Content: "- [ ] Buy milk\n- **4:00 PM**: Dentist",
		Tags:    []string{"Shopping", "Health"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecodeTransformation_FencedEqualsPlain(t *testing.T) {
	fenced := "```json\n" + plainReply + "\n```"
	if got, want := DecodeTransformation(fenced), DecodeTransformation(plainReply); !reflect.DeepEqual(got, want) {
		t.Errorf("fenced = %+v, plain = %+v", got, want)
	}
	bare := "```\n" + plainReply + "\n```"
	if got, want := DecodeTransformation(bare), DecodeTransformation(plainReply); !reflect.DeepEqual(got, want) {
		t.Errorf("bare fence = %+v, plain = %+v", got, want)
	}
}

func TestDecodeTransformation_Fallback(t *testing.T) {
	raw := "Sure! Here is your note:\n- milk"
	got := DecodeTransformation(raw)
	if !got.Fallback {
		t.Fatal("expected fallback")
	}
	if got.Title != "" || got.Content != raw || len(got.Tags) != 0 || got.Tags == nil {
		t.Errorf("fallback = %+v", got)
	}
}

func TestDecodeTransformation_NonObjectFallback(t *testing.T) {
	for _, raw := range []string{"null", "```json\nnull\n```", "42", `"text"`, `["a"]`} {
		got := DecodeTransformation(raw)
		if !got.Fallback || got.Content != raw || got.Tags == nil {
			t.Errorf("%q = %+v, want fallback", raw, got)
		}
	}
}

func TestDecodeTransformation_MissingMarkdownUsesCleanedText(t *testing.T) {
	raw := "```json\n{\"title\":\"T\"}\n```"
	got := DecodeTransformation(raw)
	if got.Fallback {
		t.Fatal("unexpected fallback")
	}
	if got.Content != `{"title":"T"}` {
		t.Errorf("content = %q", got.Content)
	}
	if got.Tags == nil {
		t.Error("tags should be empty, not nil")
	}
}

func TestMagicFormat_Prompt(t *testing.T) {
	stub := &stubCompleter{reply: plainReply}
	g := NewGateway(stub)

	got, err := g.MagicFormat(context.Background(), "buy milk, dentist 4pm")
	if err != nil {
		t.Fatalf("MagicFormat: %v", err)
	}
	if got.Title != "Errands" {
		t.Errorf("title = %q", got.Title)
	}
	if !stub.opts.JSON || stub.opts.Temperature != StructuredTemperature {
		t.Errorf("opts = %+v", stub.opts)
	}
	if len(stub.got) != 2 || stub.got[0].Role != RoleSystem || stub.got[1].Content != "buy milk, dentist 4pm" {
		t.Fatalf("messages = %+v", stub.got)
	}
	for _, want := range []string{"GFM checkboxes", "max 6 words", "2-4", `"markdown"`, "Do NOT translate"} {
		if !strings.Contains(stub.got[0].Content, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestSummarize_Prompt(t *testing.T) {
	stub := &stubCompleter{reply: "not json at all"}
	g := NewGateway(stub)

	got, err := g.Summarize(context.Background(), "long article")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !got.Fallback || got.Content != "not json at all" {
		t.Errorf("got %+v", got)
	}
	for _, want := range []string{"one-sentence", "bolded", "2-3", "Do NOT translate"} {
		if !strings.Contains(stub.got[0].Content, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestRewriteTone(t *testing.T) {
	stub := &stubCompleter{reply: "  Ahoy, matey!\n"}
	g := NewGateway(stub)

	got, err := g.RewriteTone(context.Background(), "Hello friend", "Pirate")
	if err != nil {
		t.Fatalf("RewriteTone: %v", err)
	}
	if got != "Ahoy, matey!" {
		t.Errorf("got %q", got)
	}
	if stub.opts.JSON || stub.opts.Temperature != DefaultTemperature {
		t.Errorf("opts = %+v", stub.opts)
	}
	if !strings.Contains(stub.got[0].Content, `"Pirate" tone`) {
		t.Errorf("prompt = %q", stub.got[0].Content)
	}
}

func TestStructured_TransportErrorPropagates(t *testing.T) {
	stub := &stubCompleter{err: &ServiceError{Status: 500, Body: "boom"}}
	g := NewGateway(stub)

	_, err := g.MagicFormat(context.Background(), "x")
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Errorf("err = %v, want *ServiceError", err)
	}
}
