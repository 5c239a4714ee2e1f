package assistant

import (
	"strings"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// Turn is one prior utterance carried into the prompt.
type Turn struct {
	Role    string // domain.RoleUser or domain.RoleAssistant
	Content string
}

// systemTemplate pins the marker phrases the classifier looks for. The model
// must emit them verbatim or the reply is treated as answered.
const systemTemplate = `You are a helpful assistant for guests staying at a rental property.
Answer ONLY from the guide content below. Be concise and friendly.

Rules:
- If the question is about the property or the stay but the guide content does not answer it, reply exactly with: "I'll pass this to the property manager and they will follow up with you."
- If the question has nothing to do with the property or the stay, reply exactly with: "That is outside the scope of this guidebook."
- If you are unsure whether the guide answers it, say "not mentioned in the guide" rather than guessing.
- Never invent facts that are not in the guide content.

Guide content:
`

// BuildSystemPrompt returns the system instruction for a guidebook: fixed
// behavioral rules followed by the full guide body and its source URL. No
// chunking or retrieval; the entire guide rides along on every turn.
func BuildSystemPrompt(g *domain.Guidebook) string {
	var b strings.Builder
	b.Grow(len(systemTemplate) + len(g.Body) + len(g.OriginalURL) + 64)
	b.WriteString(systemTemplate)
	b.WriteString(strings.TrimSpace(g.Body))
	if u := strings.TrimSpace(g.OriginalURL); u != "" {
		b.WriteString("\n\nFull guide: ")
		b.WriteString(u)
	}
	return b.String()
}

// HistoryFromMessages converts stored messages into prompt turns, keeping at
// most the last limit entries.
func HistoryFromMessages(msgs []domain.ChatMessage, limit int) []Turn {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Turn{Role: m.Role, Content: m.Content})
	}
	return out
}
