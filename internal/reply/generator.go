// Package reply drafts suggested host replies to guest messages.
package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hostfolio-ai/guest-knowledge/internal/llm"
	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/pkg/metrics"
)

// Draft is a suggested reply. Confidence is a coarse self-assessment, not a
// calibrated probability; callers should treat the text as a starting point
// for the host, never as send-ready.
type Draft struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model,omitempty"`
}

// Generator drafts a reply from a normalized thread and optional property
// context.
type Generator interface {
	Generate(ctx context.Context, thread model.NormalizedThread, propertyContext string) (*Draft, error)
}

// LLMGenerator drafts replies with a single templated completion call.
type LLMGenerator struct {
	client llm.Client
	model  string
}

// NewLLMGenerator creates a generator over the given LLM client. model may be
// empty to use the provider default.
func NewLLMGenerator(client llm.Client, model string) *LLMGenerator {
	return &LLMGenerator{client: client, model: model}
}

const replyInstructions = `You draft replies that a vacation-rental host sends to guests.
Write a short, warm, concrete reply to the guest's latest message.
Do not invent facts about the property; if the answer is not in the provided context, say you will check and follow up.
Reply with the message text only.`

// Generate drafts a reply for the thread's latest guest message.
func (g *LLMGenerator) Generate(ctx context.Context, thread model.NormalizedThread, propertyContext string) (*Draft, error) {
	if thread.LatestGuestMessage == nil {
		return nil, errors.New("no guest message to reply to")
	}

	var prompt strings.Builder
	prompt.WriteString(replyInstructions)
	prompt.WriteString("\n\n")
	if propertyContext != "" {
		fmt.Fprintf(&prompt, "Property context:\n%s\n\n", propertyContext)
	}
	if thread.Subject != "" {
		fmt.Fprintf(&prompt, "Thread subject: %s\n", thread.Subject)
	}
	fmt.Fprintf(&prompt, "Guest message:\n%s\n", thread.LatestGuestMessage.BodyPlain)

	start := time.Now()
	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Model:       g.model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt.String()}},
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		metrics.RecordReply(g.model, "error", time.Since(start).Seconds(), 0, 0)
		return nil, fmt.Errorf("reply completion: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		metrics.RecordReply(resp.Model, "empty", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
		return nil, errors.New("reply completion returned no text")
	}

	metrics.RecordReply(resp.Model, "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	return &Draft{
		Text:       text,
		Confidence: confidence(thread, propertyContext),
		Model:      resp.Model,
	}, nil
}

// confidence: drafts grounded in property context rate higher, drafts to
// messages without a detected question lower.
func confidence(thread model.NormalizedThread, propertyContext string) float64 {
	c := 0.5
	if propertyContext != "" {
		c += 0.25
	}
	if thread.HasGuestQuestion {
		c += 0.1
	}
	if c > 0.95 {
		c = 0.95
	}
	return c
}
