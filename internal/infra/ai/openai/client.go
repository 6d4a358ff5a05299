package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/iyervish/design-crit/internal/domain/analysis"
	"github.com/iyervish/design-crit/internal/infra/ai/prompt"
)

const maxTokens = 4096

// temperature is moderate and non-zero on purpose: varied but not erratic
// phrasing across critiques.
const temperature = 0.7

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Evaluate sends the image and the rubric as one single-turn message and
// returns the model's raw text. One blocking round trip, no streaming, no
// retry; two calls on the same image may score differently.
func (c *Client) Evaluate(ctx context.Context, imageBase64 string) (string, error) {
	model := c.Model
	if model == "" {
		model = openai.GPT4o
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/png;base64," + imageBase64,
							Detail: openai.ImageURLDetailHigh,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt.Rubric(),
					},
				},
			},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", analysis.ErrEmptyEvaluatorResponse
	}
	return resp.Choices[0].Message.Content, nil
}
