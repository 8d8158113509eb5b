package stubllm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"crypto-research-service/models"
)

// Client is a deterministic, no-network completion stub intended for CI,
// local end-to-end tests, and keyless demo runs. The answer is derived
// from a hash of the conversation so repeated runs stay stable.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

func (c *Client) Model() string { return "stub-1" }

func (c *Client) Complete(messages []models.ChatMessage) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString("\x00")
		b.WriteString(m.Content)
		b.WriteString("\x00")
	}
	sum := sha256.Sum256([]byte(b.String()))
	short := hex.EncodeToString(sum[:8])

	question := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			question = messages[i].Content
			break
		}
	}

	return fmt.Sprintf(
		"Stubbed research answer (%s): I can't reach a live model right now, "+
			"but here is what I was asked: %q. Configure LLM_PROVIDER=openai or "+
			"gemini with an API key for real answers.",
		short, truncate(question, 160)), nil
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
