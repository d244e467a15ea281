package llm

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vivatalk/mediator/domain"
)

const geminiProvider = "gemini"

type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Complete implements domain.Completer.
func (g *GeminiClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents, config := toGemini(req)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", classify(geminiProvider, fmt.Errorf("generate content: %w", err))
	}
	return resp.Text(), nil
}

// Stream implements domain.Completer. The client timeout applies until the
// first response arrives.
func (g *GeminiClient) Stream(ctx context.Context, req domain.CompletionRequest) (domain.CompletionStream, error) {
	ctx, opened, cancel := openStream(ctx, g.timeout)

	contents, config := toGemini(req)
	next, stop := iter.Pull2(g.client.Models.GenerateContentStream(ctx, g.model, contents, config))
	return &geminiStream{ctx: ctx, next: next, stop: stop, opened: opened, cancel: cancel}, nil
}

type geminiStream struct {
	ctx    context.Context
	next   func() (*genai.GenerateContentResponse, error, bool)
	stop   func()
	opened func() bool
	cancel func()
}

func (s *geminiStream) Recv() (string, error) {
	for {
		resp, err, ok := s.next()
		s.opened()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", classify(geminiProvider, timedOut(s.ctx, fmt.Errorf("stream content: %w", err)))
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
}

func (s *geminiStream) Close() error {
	s.stop()
	s.cancel()
	return nil
}

// toGemini maps a completion request onto Gemini contents. A leading system
// message becomes the system instruction; Gemini has no system role inside
// contents, so any later system message is sent as user text.
func toGemini(req domain.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(req.Temperature),
		TopP:             genai.Ptr(req.TopP),
		MaxOutputTokens:  int32(req.MaxTokens),
		FrequencyPenalty: genai.Ptr(req.FrequencyPenalty),
		PresencePenalty:  genai.Ptr(req.PresencePenalty),
	}

	messages := req.Messages
	if len(messages) > 0 && messages[0].Role == domain.SystemRole {
		config.SystemInstruction = genai.NewContentFromText(messages[0].Content, genai.RoleUser)
		messages = messages[1:]
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == domain.AssistantRole {
			role = genai.RoleModel
		}
		text := msg.Content
		if msg.Role == domain.SystemRole {
			text = "[system] " + strings.TrimSpace(text)
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: text}},
		})
	}
	return contents, config
}

var _ domain.Completer = (*GeminiClient)(nil)
