package services

import (
	"fmt"
	"strings"

	"regbot/models"
)

// NoAnswerMessage is the fixed refusal returned when there is no grounding
// and no history to fall back on. The grounding instruction mandates the same
// phrase when the answer is absent from the supplied context.
const NoAnswerMessage = "در قوانین موجود جوابی برای این سوال پیدا نکردم."

// FallbackSystemPrompt is used when retrieval produced no grounding but the
// session has prior turns: degrade to a generic assistant instead of
// refusing.
const FallbackSystemPrompt = "تو یک دستیار هوشمند هستی. به سوالات کاربر پاسخ بده."

// groundedPromptTemplate ties the model's answer to the retrieved passages:
// answer only from the supplied context, use the fixed refusal when the
// answer is absent, never invent rules, cite the regulation name when
// relevant, and respond in Persian.
const groundedPromptTemplate = `تو هوش مصنوعی پاسخگو به سوالات آموزشی دانشگاه هستی.
وظیفه تو پاسخ دادن به سوالات دانشجوها *صرفاً* بر اساس متون زیر است.

قوانین اکید:
1. اگر پاسخ سوال در متن‌های زیر نیست، بگو "%s".
2. از خودت قانونی نساز و حدس نزن.
3. پاسخ را محترمانه و دقیق به زبان فارسی بده.
4. اگر لازم است، به نام آیین‌نامه یا قانون ارجاع بده.

متون قوانین (Context):
%s

حالا به سوال زیر پاسخ بده:
`

// formatDocsForLLM renders retrieved chunks as a numbered context block. Each
// passage keeps its citation title; internal newlines are collapsed so one
// source stays one block.
func formatDocsForLLM(docs []models.ScoredChunk) string {
	formatted := make([]string, 0, len(docs))
	for i, doc := range docs {
		content := strings.TrimSpace(strings.ReplaceAll(doc.Chunk.Text, "\n", " "))
		formatted = append(formatted, fmt.Sprintf("[Source %d: %s]\n%s\n", i+1, doc.Chunk.Title(), content))
	}
	return strings.Join(formatted, "\n")
}

// groundedPrompt embeds the context block inside the grounding instruction.
func groundedPrompt(docs []models.ScoredChunk) string {
	return fmt.Sprintf(groundedPromptTemplate, NoAnswerMessage, formatDocsForLLM(docs))
}
