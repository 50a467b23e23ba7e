package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator wraps a Gemini generative model with a capped output length.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGenerator(ctx context.Context, apiKey, model string, temperature float32, maxTokens int32, opts ...option.ClientOption) (*Generator, error) {
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Complete generates an answer grounded in systemContext. The user query is
// sent as the sole user turn; the assembled context rides along as the
// system instruction.
func (g *Generator) Complete(ctx context.Context, systemContext, userQuery string) (string, error) {
	gm := g.client.GenerativeModel(g.model)
	gm.SetTemperature(g.temperature)
	gm.SetMaxOutputTokens(g.maxTokens)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemContext)}}

	slog.DebugContext(ctx, "generating completion", "model", g.model, "context_length", len(systemContext))

	resp, err := gm.GenerateContent(ctx, genai.Text(userQuery))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("model %s returned no candidates", g.model)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", fmt.Errorf("model %s returned an empty answer", g.model)
	}
	return answer, nil
}

func (g *Generator) Close() error {
	return g.client.Close()
}
