package query

import (
	"fmt"
	"strings"

	"github.com/raghul-ravi/rag-it/internal/models"
)

// systemPrompt restricts the model to the retrieved context. Wording matters:
// the canned insufficient-context sentence is what users see when retrieval
// found chunks but none of them answer the question.
const systemPrompt = `You are a helpful assistant that answers questions about the user's personal documents.

Rules:
- Answer only from the provided context.
- If the context does not contain the answer, say "I don't have enough information to answer that based on your documents."
- Mention which document the information came from when that helps the user.
- Be concise.`

// BuildPrompt assembles the grounded prompt: numbered context blocks with
// source attribution, then the question.
func BuildPrompt(question string, chunks []models.Retrieved) (system, user string) {
	var b strings.Builder
	b.WriteString("Context from your documents:\n\n")
	for i, ch := range chunks {
		name := ch.Metadata[models.MetaFilename]
		if name == "" {
			name = ch.Metadata[models.MetaSource]
		}
		fmt.Fprintf(&b, "[%d] From %s:\n%s\n\n", i+1, name, ch.Text)
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "Question: %s", question)
	return systemPrompt, b.String()
}
