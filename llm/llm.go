package llm

import "crypto-research-service/models"

// Client abstracts a completion provider used by the research service.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// Complete takes the full message list (system prompt included) and
	// returns the assistant's text answer.
	Complete(messages []models.ChatMessage) (string, error)
	// Model returns the model identifier reported back to clients.
	Model() string
	// SourceName returns a short provider label for logs and metrics
	// (e.g., "ChatGPT", "Gemini").
	SourceName() string
}
