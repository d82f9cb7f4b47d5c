package ai

import "fmt"

const magicFormatPrompt = `You are a professional organizer assistant.
Your goal is to take messy, unstructured text and format it into clean Markdown with structure.

Rules:
1. Identify "To-Do" items and list them with GFM checkboxes (e.g., - [ ] Task).
2. Identify "Events" with times and list them bulleted with bold times (e.g., - **4:00 PM**: Meeting).
3. Identify generic "Notes" and list them as bullet points.
4. Generate a short, concise "title" (max 6 words) that summarizes the content.
5. Generate 2-4 relevant, short hashtags (e.g., "Work", "Shopping").
6. Return valid JSON object with keys: "title" (string), "markdown" (string) and "tags" (array of strings).
7. CRITICAL: Detect the language of the input text. The output "markdown" content and "title" MUST be in the EXACT SAME language as the input. Do NOT translate.`

const summarizePrompt = `You are a precise summarizer.
Your goal is to read the input text and provide a concise summary in Markdown.

Rules:
1. Start with a one-sentence high-level overview (bolded).
2. Follow with a bulleted list of key details/takeaways.
3. Generate a short "title" (max 6 words).
4. Generate 2-3 relevant tags (e.g., "Summary", "Research").
5. Return valid JSON object with keys: "title" (string), "markdown" (string) and "tags" (array of strings).
6. CRITICAL: Detect the language of the input text. The output MUST be in the EXACT SAME language as the input. Do NOT translate.`

func toneRewritePrompt(tone string) string {
	return fmt.Sprintf(`Rewrite the following text to have a %q tone.
Keep the core meaning the same.
CRITICAL: Do not translate. Maintain the original language of the text.
Return ONLY the rewritten text.`, tone)
}

// Tone presets offered by the editor. Any other label is accepted as well.
var TonePresets = []string{"Professional", "Polite", "Pirate"}
