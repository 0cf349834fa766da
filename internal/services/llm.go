package services

import (
  "context"
  "errors"
  "fmt"
  "os"

  "github.com/openai/openai-go"
  "github.com/openai/openai-go/option"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/prompt"
)

// ErrEmptyCompletion reports a completion whose shape carried no message to
// read. It is not a transport failure; callers substitute their fallback
// reply instead of aborting.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// LLMService is the single suspension point of a chat request: one
// synchronous chat-completion call, no retries, no streaming.
type LLMService interface {
  Complete(ctx context.Context, msgs []prompt.Message) (string, error)
}

type llmService struct {
  log         *logger.Logger
  client      *openai.Client
  model       string
}

func NewLLMService(log *logger.Logger) (LLMService, error) {
  serviceLog := log.With("service", "LLMService")
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY environment variable")
  }
  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    serviceLog.Warn("OPENAI_MODEL not set; using fallback gpt-4o-mini")
    model = "gpt-4o-mini"
  }
  opts := []option.RequestOption{option.WithAPIKey(apiKey)}
  if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
    serviceLog.Info("Using custom OpenAI-compatible base URL", "baseURL", baseURL)
    opts = append(opts, option.WithBaseURL(baseURL))
  }
  client := openai.NewClient(opts...)

  return &llmService{
    log:      serviceLog,
    client:   client,
    model:    model,
  }, nil
}

// Complete sends the assembled role/content sequence and returns the first
// choice's message content verbatim, empty string included. A response with
// no choices at all comes back as ErrEmptyCompletion.
func (ls *llmService) Complete(ctx context.Context, msgs []prompt.Message) (string, error) {
  params := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
  for _, m := range msgs {
    switch m.Role {
    case prompt.RoleSystem:
      params = append(params, openai.SystemMessage(m.Content))
    case prompt.RoleAssistant:
      params = append(params, openai.AssistantMessage(m.Content))
    default:
      params = append(params, openai.UserMessage(m.Content))
    }
  }
  resp, err := ls.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
    Model:    openai.F(openai.ChatModel(ls.model)),
    Messages: openai.F(params),
  })
  if err != nil {
    ls.log.Warn("chat completion call failed", "error", err)
    return "", err
  }
  if len(resp.Choices) == 0 {
    ls.log.Warn("chat completion returned no choices", "model", ls.model)
    return "", ErrEmptyCompletion
  }
  return resp.Choices[0].Message.Content, nil
}
