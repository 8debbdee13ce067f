package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Message is a minimal chat message used by the core services.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client defines the calls made to the conversational agent.  Chat is used
// for the persona reply and transcript analysis; Classify runs the short
// sentiment classifier, usually against a cheaper model.  Each call is a
// single attempt.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Classify(ctx context.Context, messages []Message) (string, error)
}

// UpstreamError reports that the agent could not produce a usable answer:
// transport failure, timeout, API error or an empty completion.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrEmptyCompletion is wrapped in an UpstreamError when the API returns no
// choices or only whitespace.
var ErrEmptyCompletion = errors.New("empty completion")

// Options configures an OpenAIClient.
type Options struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	ClassifierModel string
}

// OpenAIClient calls the OpenAI chat completion API.
type OpenAIClient struct {
	client          *openai.Client
	chatModel       string
	classifierModel string
}

// NewOpenAIClient constructs an OpenAI-backed client.  BaseURL may point at
// any OpenAI-compatible server.
func NewOpenAIClient(opts Options) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	chatModel := opts.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	classifierModel := opts.ClassifierModel
	if classifierModel == "" {
		classifierModel = chatModel
	}
	return &OpenAIClient{
		client:          openai.NewClientWithConfig(cfg),
		chatModel:       chatModel,
		classifierModel: classifierModel,
	}
}

// Chat sends the messages to the chat model and returns the assistant's reply.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, "chat", c.chatModel, 0.7, messages)
}

// Classify sends the messages to the classifier model.
func (c *OpenAIClient) Classify(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, "classify", c.classifierModel, 0.2, messages)
}

func (c *OpenAIClient) complete(ctx context.Context, op, model string, temperature float32, messages []Message) (string, error) {
	if c.client == nil {
		return "", &UpstreamError{Op: op, Err: errors.New("openai client not initialized")}
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    oaMsgs,
		Temperature: temperature,
	})
	if err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &UpstreamError{Op: op, Err: ErrEmptyCompletion}
	}
	return resp.Choices[0].Message.Content, nil
}
