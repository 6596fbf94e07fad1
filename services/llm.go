package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"regbot/config"
)

// NewChatModel builds the chat-completion capability for the configured
// provider. All providers are used through the llms.Model interface so the
// chat service stays provider-agnostic.
func NewChatModel(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.OpenAIModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai chat client: %w", err)
		}
		return client, nil
	case "ollama":
		client, err := ollama.New(
			ollama.WithServerURL(cfg.OllamaBaseURL),
			ollama.WithModel(cfg.OllamaModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama chat client: %w", err)
		}
		return client, nil
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return &geminiChat{client: client, model: cfg.GeminiModel}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}

// geminiChat adapts the Gemini API to the llms.Model interface: the system
// message becomes the SystemInstruction, user turns map to role "user" and
// assistant turns to role "model".
type geminiChat struct {
	client *genai.Client
	model  string
}

func (g *geminiChat) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: resolveTemperature(options),
	}

	var contents []*genai.Content
	for _, msg := range messages {
		text := messageText(msg)
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			genCfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			}
		case llms.ChatMessageTypeAI:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: text}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: text}},
			})
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: sb.String()}},
	}, nil
}

// Call implements the deprecated single-prompt entry point of llms.Model.
func (g *geminiChat) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := g.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// resolveTemperature extracts the requested temperature from the call
// options, or nil when none was given. A negative sentinel distinguishes an
// explicit temperature of 0 from the unset default.
func resolveTemperature(options []llms.CallOption) *float32 {
	opts := llms.CallOptions{Temperature: -1}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Temperature < 0 {
		return nil
	}
	t := float32(opts.Temperature)
	return &t
}

func messageText(msg llms.MessageContent) string {
	var sb strings.Builder
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}
