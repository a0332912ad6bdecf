package core

import (
	"context"
	"errors"
	"log"

	"github.com/google/generative-ai-go/genai"

	"tokoassist/internal/catalog"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation as submitted by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var (
	ErrEmptyConversation = errors.New("conversation has no messages")
	ErrLastNotUser       = errors.New("last message must be from the user")
)

// ChatService is the prompt router: it selects a system prompt for the
// requested mode, optionally enriches it with the catalog, and issues one
// streaming completion. It holds no per-conversation state.
type ChatService struct {
	catalog *catalog.Store
	llm     Streamer
}

func NewChatService(cat *catalog.Store, llm Streamer) *ChatService {
	return &ChatService{
		catalog: cat,
		llm:     llm,
	}
}

// StreamResponse validates the conversation, prepends the mode's system
// prompt and relays the provider's token stream. Validation failures are
// returned synchronously; provider failures arrive on the error channel.
func (s *ChatService) StreamResponse(ctx context.Context, messages []Message, mode Mode) (<-chan string, <-chan error, error) {
	if len(messages) == 0 {
		return nil, nil, ErrEmptyConversation
	}
	if messages[len(messages)-1].Role != RoleUser {
		return nil, nil, ErrLastNotUser
	}

	systemPrompt := s.systemPromptFor(mode)

	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	tokens, errs := s.llm.StreamChat(ctx, systemPrompt, history)
	return tokens, errs, nil
}

func (s *ChatService) systemPromptFor(mode Mode) string {
	switch mode {
	case ModeList:
		return listSystemPrompt
	case ModeRecipe:
		return recipeSystemPrompt
	default:
		products, err := s.catalog.List()
		if err != nil {
			// An unreadable catalog degrades the answer, it does not
			// fail the chat.
			log.Printf("Failed to read catalog for inquiry prompt: %v", err)
			products = nil
		}
		return inquirySystemPrompt(products)
	}
}
