package quizgen

import (
	"fmt"
	"strings"
)

// SystemPrompt is the instruction shared by every backend. It pins the output
// to a bare JSON array so [ParseQuestions] has a fighting chance with smaller
// models.
const SystemPrompt = `You are a quiz generator for a live classroom polling tool.
You write clear multiple-choice questions grounded strictly in the lecture
transcript you are given. You respond with a JSON array and nothing else: no
prose, no markdown fences, no trailing commentary.`

// BuildPrompt renders the user prompt for req. Call [Request.Normalise] first;
// BuildPrompt assumes counts are already filled in.
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate exactly %d multiple-choice questions from the lecture transcript below.\n", req.Count)
	fmt.Fprintf(&b, "Each question has exactly %d options with exactly one correct answer.\n", req.Options)
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "Target difficulty: %s.\n", req.Difficulty)
	}
	b.WriteString(`
Rules:
- Questions must be answerable from the transcript alone.
- Do not reference "the transcript", "the speaker", or "the lecture" in question text.
- Distractors must be plausible but unambiguously wrong.

Respond with a JSON array in this exact shape:
[{"text": "...", "options": ["...", "...", "...", "..."], "correctIndex": 0, "explanation": "..."}]

Transcript:
`)
	b.WriteString(req.Text)
	return b.String()
}
