package task

import (
	"fmt"
	"strings"

	"github.com/quizgen-io/quizgen-api/internal/domain"
)

// buildPrompt assembles the model-facing prompt from the job input,
// appending an explicit question count instruction when the caller
// requested one.
func buildPrompt(input domain.JobInput) string {
	prompt := strings.TrimSpace(input.Prompt)
	if input.QuestionCount > 0 {
		prompt = fmt.Sprintf("%s\n\nGenerate exactly %d questions.", prompt, input.QuestionCount)
	}
	return prompt
}

// buildSystemInstruction describes the exact expected JSON shape and the
// per-type answer count rules, enumerating every configured language by
// its numeric id. Stating the validation rules up front lets most
// generations pass structural validation on the first attempt.
func buildSystemInstruction(languages []*domain.Language) string {
	var b strings.Builder

	b.WriteString("You generate quiz content as a single JSON document and nothing else.\n\n")

	b.WriteString("Languages. Provide every translation for each of these language ids:\n")
	for _, lang := range languages {
		fmt.Fprintf(&b, "- %s: %s\n", lang.ID, lang.Name)
	}

	b.WriteString(`
Output shape:
{
  "translations": { "<language_id>": { "title": "...", "description": "..." } },
  "questions": [
    {
      "type": "multiple_choice" | "true_false" | "text" | "matching",
      "translations": { "<language_id>": "question text" },
      "answers": [ ... ]
    }
  ]
}

Answer rules by question type:
- multiple_choice: exactly 4 answers of the form
  {"is_correct": true|false, "translations": {"<language_id>": "..."}};
  at least one answer must be correct.
- true_false: exactly 2 answers of the same form; exactly one must be correct.
- text: a non-empty list of accepted answer strings, e.g. ["Paris", "paris"].
- matching: a list of groups {"left": [...], "right": [...]} where left and
  right have the same length; at least 2 pairs in total.

Every translations object must contain every language id listed above, with
non-empty values. Both title and description are required per language.
Return only the JSON document, with no surrounding prose or code fences.
`)

	return b.String()
}
