package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/strudelvibe/vibe-bot/config"
	"github.com/strudelvibe/vibe-bot/internal/model"
	"github.com/strudelvibe/vibe-bot/internal/prompt"
	"github.com/strudelvibe/vibe-bot/pkg/tokens"
)

var (
	ErrNoResponse = errors.New("no response from model")
)

// OpenRouterUsecase sends one chat completion request per call. It performs
// no retries and adds no timeout beyond the HTTP client's own.
type OpenRouterUsecase struct {
	cfg config.OpenRouter
}

func NewOpenRouterUsecase(cfg config.OpenRouter) *OpenRouterUsecase {
	return &OpenRouterUsecase{
		cfg: cfg,
	}
}

// Complete sends [system instruction] + transcript + newest user text and
// returns the raw text of the first choice. Only role and content of the
// transcript reach the wire.
func (o *OpenRouterUsecase) Complete(
	ctx context.Context, credential, modelID string, transcript []model.Message, userText string,
) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript)+2)
	messages = append(
		messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		},
	)
	for _, message := range transcript {
		messages = append(
			messages, openai.ChatCompletionMessage{
				Role:    parseMessageRole(message.Role),
				Content: message.Content,
			},
		)
	}
	messages = append(
		messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: userText,
		},
	)
	messages = o.trimToBudget(messages, modelID)

	clientConfig := openai.DefaultConfig(strings.TrimSpace(credential))
	clientConfig.BaseURL = o.cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Transport: &attributionTransport{
			base:    http.DefaultTransport,
			referer: o.cfg.Referer,
			title:   o.cfg.AppTitle,
		},
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(
		ctx, openai.ChatCompletionRequest{
			Model:    modelID,
			Messages: messages,
		},
	)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if msg := strings.TrimSpace(apiErr.Message); msg != "" {
				return "", errors.New(msg)
			}
			return "", fmt.Errorf("completion endpoint returned status %d", apiErr.HTTPStatusCode)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// trimToBudget drops the oldest transcript messages until the request fits
// the token budget. The system instruction and the newest user message are
// always kept.
func (o *OpenRouterUsecase) trimToBudget(
	messages []openai.ChatCompletionMessage, modelID string,
) []openai.ChatCompletionMessage {
	if o.cfg.TokenBudget <= 0 {
		return messages
	}
	for len(messages) > 2 {
		count, err := tokens.Count(messages, modelID)
		if err != nil {
			log.Printf("count token error: %v", err)
			return messages
		}
		if count < o.cfg.TokenBudget {
			break
		}
		messages = append(messages[:1], messages[2:]...)
	}
	return messages
}

func parseMessageRole(role model.MessageRole) string {
	switch role {
	case model.MessageRoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// attributionTransport adds the OpenRouter attribution headers to every
// request.
type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.referer != "" {
		clone.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		clone.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(clone)
}
