package mcpserver

// NoteFormatURI is the resource URI of NoteFormatContract.
const NoteFormatURI = "mindflow://note-format"

// NoteFormatContract describes how mindflow notes are shaped and how the
// tools change them, for LLM consumers.
const NoteFormatContract = `# mindflow Note Format

Every note is a JSON object. Absent fields and empty fields mean different
things, so keep them absent when you have nothing to say.

## Fields

| Field | Type | Notes |
|---|---|---|
| id | string | Opaque, assigned on creation. |
| title | string, optional | Display title. Absent means "Untitled". |
| content | string | Markdown. GFM checkboxes (` + "`- [ ]`" + `) are tasks. |
| originalContent | string, optional | Text a transformation replaced. Present only when undo is possible. |
| createdAt | number | Unix milliseconds. |
| isArchived | bool | Archived notes are hidden from list_notes unless include_archived is set. |
| isPinned | bool, optional | Pinned notes sort first. |
| tags | string list, optional | Kept in first-seen order, no duplicates after a transformation. |
| type | "raw", "formatted" or "summary" | How the current content was produced. |

## Tools that change notes

- ` + "`create_note`" + ` stores text as written (type raw). No AI.
- ` + "`magic_format`" + ` and ` + "`summarize`" + ` call the AI. They need ` + "`confirm: true`" + `.
  The user's tags come first, AI tags are appended. When the text changed,
  the input is kept in originalContent.
- ` + "`undo_note`" + ` restores originalContent, sets type raw and drops the history.
  It works once. Needs ` + "`confirm: true`" + `.
- ` + "`delete_note`" + ` needs ` + "`confirm: true`" + `.
- ` + "`rewrite_tone`" + ` returns text only. Presets: Professional, Polite, Pirate.

## Answering questions

` + "`ask_notes`" + ` answers only from the 30 most recently stored non-archived notes
and replies "I couldn't find that in your notes." otherwise.

## Example

` + "```" + `json
{
  "id": "3f1c2a9e-6b0d-4f57-9a55-0d2c8f1d2b11",
  "title": "Errands",
  "content": "- [ ] Buy milk\n- **4:00 PM**: Dentist",
  "originalContent": "buy milk, dentist at 4",
  "createdAt": 1717430400000,
  "isArchived": false,
  "isPinned": false,
  "tags": ["Shopping", "Health"],
  "type": "formatted"
}
` + "```" + `
`
