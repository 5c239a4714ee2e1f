package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// ErrEmptyReply is returned when the model produced no usable text.
var ErrEmptyReply = errors.New("assistant: empty model reply")

// Reply is a generated answer plus the token usage reported by the provider.
type Reply struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Generator produces an assistant reply for one conversation turn. The
// implementation owns its own deadline; callers pass the request context.
type Generator interface {
	Generate(ctx context.Context, system string, history []Turn, userMsg string) (*Reply, error)
}

// Gemini implements Generator on the Google Gen AI SDK.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini builds a Gemini generator against the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

// Generate sends the system prompt, prior turns, and the new user message to
// the model and returns the reply text with token counts. The call is bounded
// by the configured timeout; expiry surfaces as an ordinary error, which the
// conversation layer converts into an apology message.
func (g *Gemini) Generate(ctx context.Context, system string, history []Turn, userMsg string) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		role := genai.RoleUser
		if t.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(userMsg, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyReply
	}

	out := &Reply{Text: text}
	if um := resp.UsageMetadata; um != nil {
		out.InputTokens = int64(um.PromptTokenCount)
		out.OutputTokens = int64(um.CandidatesTokenCount)
	}
	return out, nil
}
