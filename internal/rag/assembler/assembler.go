// Package assembler formats retrieved matches into the context block and prompt sent to the LLM.
package assembler

import (
	"fmt"
	"strings"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
)

const NoContentPlaceholder = "[No content]"

const NotAvailableAnswer = "The answer is not available in the provided documentation."

const SystemMessage = "You are a helpful AI assistant specialized in answering technical questions about Pydantic AI.\n" +
	"Use ONLY the provided documentation context to answer questions.\n" +
	"- Do NOT guess or use external knowledge.\n" +
	"- If the answer is not present in the context, reply with: '" + NotAvailableAnswer + "'\n" +
	"- Respond in a concise and accurate manner. Format code using indentation only, do NOT use triple backticks.\n"

const promptTemplate = `You are a highly accurate technical assistant specialized in answering questions about Pydantic AI, based solely on the provided documentation context.

Strict Rules:
- Use ONLY the documentation context below. Do NOT use external knowledge or guess.
- If the answer is not found in the context, respond with: "%s"
- Be detailed and exhaustive in your answer. Do not merge unrelated information from multiple chunks unless necessary.

Instructions:
- Provide a well-structured, informative, and technically accurate answer.
- Use bullet points, steps, or examples where helpful.
- Format code as indented blocks, not using triple backticks.
- Minimize unnecessary line breaks for readability.

Context:
%s

Question:
%s

Detailed Answer:`

// Assemble renders one Title/Score/Content record per match, in the given order, separated by a
// blank line. Content starts on its own line. It never reorders, filters or truncates.
func Assemble(matches []commonModels.Match) string {
	records := make([]string, 0, len(matches))
	for i, m := range matches {
		records = append(records, fmt.Sprintf("Title: %s\nScore: %.4f\nContent:\n%s",
			stringOr(m.Metadata, commonModels.MetaTitle, fmt.Sprintf("Chunk %d", i+1)),
			m.Score,
			stringOr(m.Metadata, commonModels.MetaPageContent, NoContentPlaceholder),
		))
	}
	return strings.Join(records, "\n\n")
}

// BuildPrompt is the user message for the answer-generation call.
func BuildPrompt(context string, question string) string {
	return fmt.Sprintf(promptTemplate, NotAvailableAnswer, context, strings.TrimSpace(question))
}

// Sources lists the ids of the matches, in order.
func Sources(matches []commonModels.Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Id
	}
	return ids
}

func stringOr(metadata map[string]any, key string, fallback string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	if s == "" {
		return fallback
	}
	return s
}
