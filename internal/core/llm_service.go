package core

import (
	"context"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"tokoassist/internal/config"
)

// Streamer issues a streaming chat completion. The token channel carries
// incremental text chunks; the error channel carries at most one error.
// Both channels are closed when the stream ends.
type Streamer interface {
	StreamChat(ctx context.Context, systemPrompt string, history []*genai.Content) (<-chan string, <-chan error)
}

// LLMService wraps the Gemini client. One fixed model identifier is used
// for every completion.
type LLMService struct {
	client    *genai.Client
	modelName string
}

func NewLLMService() *LLMService {
	ctx := context.Background()

	opts := []option.ClientOption{option.WithAPIKey(config.AppConfig.GeminiAPIKey)}
	if config.AppConfig.GeminiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(config.AppConfig.GeminiEndpoint))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &LLMService{
		client:    client,
		modelName: config.AppConfig.ChatModel,
	}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

// StreamChat replays the conversation history into a chat session and
// relays the provider's token stream. Cancelling ctx (for instance when
// the HTTP caller disconnects) abandons the in-flight stream.
func (s *LLMService) StreamChat(ctx context.Context, systemPrompt string, history []*genai.Content) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		if len(history) == 0 {
			errorChan <- fmt.Errorf("prompt history is empty for chat completion")
			return
		}

		model := s.client.GenerativeModel(s.modelName)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}

		last := history[len(history)-1]
		chatSession := model.StartChat()
		chatSession.History = history[:len(history)-1]

		iter := chatSession.SendMessageStream(ctx, last.Parts...)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errorChan <- fmt.Errorf("gemini chat stream failed: %w", err)
				return
			}

			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				txt, ok := part.(genai.Text)
				if !ok {
					log.Printf("Gemini stream part was not text: %T", part)
					continue
				}
				select {
				case contentChan <- string(txt):
				case <-ctx.Done():
					errorChan <- ctx.Err()
					return
				}
			}
		}
	}()

	return contentChan, errorChan
}
