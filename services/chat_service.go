package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tmc/langchaingo/llms"

	"regbot/database"
	"regbot/models"
)

// MaxSources caps how many deduplicated source citations a response carries.
const MaxSources = 5

// ChatService merges session history, retrieval grounding and the current
// query into one model invocation, and persists the resulting turn pair.
type ChatService struct {
	rag           RAGService
	llm           llms.Model
	sessions      *database.SessionStore
	historyWindow int
	temperature   float64
	timeout       time.Duration
}

func NewChatService(rag RAGService, llm llms.Model, sessions *database.SessionStore, historyWindow int, temperature float64, timeout time.Duration) *ChatService {
	if historyWindow <= 0 {
		historyWindow = 6
	}
	return &ChatService{
		rag:           rag,
		llm:           llm,
		sessions:      sessions,
		historyWindow: historyWindow,
		temperature:   temperature,
		timeout:       timeout,
	}
}

// GenerateChatResponse runs one request through the pipeline. Grounding and
// history decide the system message:
//
//   - grounding present: grounded instruction;
//   - no grounding, history exists: generic fallback, the model is still
//     called with the history;
//   - no grounding, no history: short-circuit to the fixed refusal without
//     calling the model.
//
// On success (or short-circuit) the user turn and assistant turn are
// committed together; a failed model call commits nothing, so no user turn is
// ever left without its paired response.
func (s *ChatService) GenerateChatResponse(ctx context.Context, query, sessionID string) (string, []map[string]string, error) {
	if err := s.sessions.Ensure(sessionID); err != nil {
		return "", nil, err
	}

	systemInstruction, docs := s.rag.GenerateAugmentedPrompt(ctx, query)

	history, err := s.sessions.LastMessages(sessionID, s.historyWindow)
	if err != nil {
		return "", nil, err
	}

	var responseText string
	if systemInstruction == "" && len(history) == 0 {
		responseText = NoAnswerMessage
	} else {
		messages := make([]llms.MessageContent, 0, len(history)+2)
		if systemInstruction != "" {
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemInstruction))
		} else {
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, FallbackSystemPrompt))
		}
		for _, msg := range history {
			switch msg.Role {
			case models.RoleUser:
				messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
			case models.RoleAssistant:
				messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, msg.Content))
			}
		}
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))

		responseText, err = s.invokeModel(ctx, messages)
		if err != nil {
			log.Printf("SERVICE ERROR: LLM generation failed: %v", err)
			return "", nil, err
		}
	}

	if err := s.sessions.AppendTurns(sessionID, query, responseText); err != nil {
		return "", nil, err
	}

	return responseText, DedupSources(docs, MaxSources), nil
}

// invokeModel calls the language model with a bounded timeout.
func (s *ChatService) invokeModel(ctx context.Context, messages []llms.MessageContent) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.llm.GenerateContent(ctx, messages, llms.WithTemperature(s.temperature))
	if err != nil {
		return "", fmt.Errorf("LLM generation error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// DedupSources returns the metadata of the matched chunks deduplicated by
// title, preserving first-seen order and capped at max entries.
func DedupSources(docs []models.ScoredChunk, max int) []map[string]string {
	sources := []map[string]string{}
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		title := doc.Chunk.Title()
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		sources = append(sources, doc.Chunk.Metadata)
		if len(sources) == max {
			break
		}
	}
	return sources
}
