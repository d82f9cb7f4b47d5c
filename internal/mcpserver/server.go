// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mindflow tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mindflow/internal/ai"
	"github.com/starford/mindflow/internal/apperr"
	"github.com/starford/mindflow/internal/markdown"
	"github.com/starford/mindflow/internal/models"
	"github.com/starford/mindflow/internal/noteservice"
)

// Server wraps the MCP server with mindflow tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all mindflow tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"mindflow",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, pinned first then newest first."),
		mcp.WithBoolean("include_archived", mcp.Description("Return the whole collection in stored order, archived notes included")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note by id, including its tasks."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Store text as a new raw note. No AI is involved. "+
			"Read the format via get_note_contract or the "+NoteFormatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note text (Markdown)")),
		mcp.WithString("title", mcp.Description("Optional title")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("magic_format",
		mcp.WithDescription("Restructure text into categorized Markdown with AI. "+
			"With id, the note is edited; without, a new note is created."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw text to format")),
		mcp.WithString("id", mcp.Description("Existing note id")),
		mcp.WithString("title", mcp.Description("Title to keep when the AI suggests none")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags, kept before AI tags")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true: "+noteservice.PromptMagicFormat)),
	), s.magicFormat)

	s.mcp.AddTool(mcp.NewTool("summarize",
		mcp.WithDescription("Summarize text with AI into an overview plus key points."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to summarize")),
		mcp.WithString("id", mcp.Description("Existing note id")),
		mcp.WithString("title", mcp.Description("Title to keep when the AI suggests none")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags, kept before AI tags")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true: "+noteservice.PromptSummarize)),
	), s.summarize)

	s.mcp.AddTool(mcp.NewTool("rewrite_tone",
		mcp.WithDescription("Rewrite text in another tone. Returns text; nothing is saved."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to rewrite")),
		mcp.WithString("tone", mcp.Required(), mcp.Description("Tone label, e.g. "+strings.Join(ai.TonePresets, ", "))),
	), s.rewriteTone)

	s.mcp.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Flip a checkbox in a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based task index as listed by read_note")),
	), s.toggleTask)

	s.mcp.AddTool(mcp.NewTool("undo_note",
		mcp.WithDescription("Restore the text a transformation replaced. Works once."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true: "+noteservice.PromptUndo)),
	), s.undoNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note permanently."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true: "+noteservice.PromptDelete)),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("ask_notes",
		mcp.WithDescription("Answer a question using only the stored notes."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question")),
	), s.askNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the mindflow note format and tool semantics."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format",
			mcp.WithResourceDescription("Shape of a mindflow note and how the tools change it."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// Serve speaks the stdio transport on in/out until ctx is done.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type noteWithTasks struct {
	Note  models.Note     `json:"note"`
	Tasks []markdown.Task `json:"tasks"`
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// errorResult turns a service error into a tool error the model can act on.
func errorResult(err error, prompt string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotConfirmed):
		return mcp.NewToolResultError(fmt.Sprintf("confirmation required: %s Call again with confirm=true.", prompt))
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, ai.ErrOffline):
		return mcp.NewToolResultError("offline: AI features unavailable")
	}
	return mcp.NewToolResultError(err.Error())
}

func draftFrom(req mcp.CallToolRequest, content string) noteservice.Draft {
	return noteservice.Draft{
		ID:      req.GetString("id", ""),
		Title:   req.GetString("title", ""),
		Content: content,
		Tags:    markdown.ParseTagList(req.GetString("tags", "")),
	}
}

func confirmArg(req mcp.CallToolRequest) noteservice.Confirmed {
	return noteservice.Confirmed(req.GetBool("confirm", false))
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := s.svc.List(ctx)
	if req.GetBool("include_archived", false) {
		notes = s.svc.All(ctx)
	}
	return jsonResult(notes), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	tasks := markdown.Tasks(n.Content)
	if tasks == nil {
		tasks = []markdown.Task{}
	}
	return jsonResult(noteWithTasks{Note: n, Tasks: tasks}), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d := draftFrom(req, content)
	d.ID = ""
	n, err := s.svc.SaveRaw(ctx, d)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(n), nil
}

func (s *Server) magicFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.MagicFormat(ctx, draftFrom(req, content), confirmArg(req))
	if err != nil {
		return errorResult(err, noteservice.PromptMagicFormat), nil
	}
	return jsonResult(n), nil
}

func (s *Server) summarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Summarize(ctx, draftFrom(req, content), confirmArg(req))
	if err != nil {
		return errorResult(err, noteservice.PromptSummarize), nil
	}
	return jsonResult(n), nil
}

func (s *Server) rewriteTone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tone, err := req.RequireString("tone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.RewriteTone(ctx, text, tone)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) toggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.ToggleTask(ctx, id, index)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return jsonResult(n), nil
}

func (s *Server) undoNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Undo(ctx, id, confirmArg(req))
	if err != nil {
		if errors.Is(err, apperr.ErrNothingToUndo) {
			return mcp.NewToolResultError("nothing to undo: the note has no transformation history"), nil
		}
		return errorResult(err, noteservice.PromptUndo), nil
	}
	return jsonResult(n), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, id, confirmArg(req)); err != nil {
		return errorResult(err, noteservice.PromptDelete), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) askNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := s.svc.Ask(ctx, q)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
