package insights

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

//go:embed prompts/customer_note.txt
var customerNotePrompt string

const chatModel = openai.ChatModelGPT4_1Mini

// OpenAIProvider generates advisory notes through the OpenAI chat API.
type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client}
}

func (p *OpenAIProvider) Name() string {
	return chatModel
}

func (p *OpenAIProvider) CustomerNote(ctx context.Context, data CustomerData) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(customerNotePrompt),
			openai.UserMessage(buildUserPrompt(data)),
		},
		MaxTokens: openai.Int(200),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	note := strings.TrimSpace(resp.Choices[0].Message.Content)
	if note == "" {
		return "", errors.New("empty note from OpenAI")
	}
	return note, nil
}
