package qa

import (
	"context"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"vidqa/config"
	"vidqa/errors"
	"vidqa/retry"
)

const systemPrompt = `You are a helpful assistant that answers questions about YouTube videos based on their transcript.
Answer the question based ONLY on the context provided. Don't type "based on the transcript", just answer the question. If the answer is not in the context, say "I don't have enough information to answer that question."
Keep your answers concise and to the point.`

// Generator produces an answer grounded in the supplied context snippets.
type Generator interface {
	Generate(ctx context.Context, question string, snippets []string) (string, error)
}

type openAIGenerator struct {
	api   *openai.Client
	model string
}

func NewOpenAIGenerator(api *openai.Client, cfg config.OpenAIConfig) Generator {
	return &openAIGenerator{api: api, model: cfg.ChatModel}
}

func (g *openAIGenerator) Generate(ctx context.Context, question string, snippets []string) (string, error) {
	const op = "qa.openAIGenerator.Generate"

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.2,
		MaxTokens:   800,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Here is the transcript context:\n" + strings.Join(snippets, "\n\n"),
			},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	}

	// Transient upstream outages get a few attempts with doubling
	// backoff; everything else fails immediately.
	resp, err := retry.Do(ctx, 3, retry.Exponential(time.Second), isServiceUnavailable,
		func() (openai.ChatCompletionResponse, error) {
			return g.api.CreateChatCompletion(ctx, req)
		})
	if err != nil {
		var apiErr *openai.APIError
		if pkgerrors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case http.StatusTooManyRequests:
				return "", errors.RateLimited(op, err, "generation provider rate limit exceeded")
			case http.StatusServiceUnavailable:
				return "", errors.Unavailable(op, err, "generation provider is unavailable")
			}
		}
		return "", errors.Internal(op, err, "answer generation failed")
	}

	if len(resp.Choices) == 0 {
		return "", errors.Internal(op, nil, "generation response contained no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func isServiceUnavailable(err error) bool {
	var apiErr *openai.APIError
	return pkgerrors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusServiceUnavailable
}
