package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vivatalk/mediator/domain"
)

const groqProvider = "groq"

// GroqConfig configures a client for Groq's OpenAI-compatible chat
// completions API.
type GroqConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type GroqClient struct {
	client  *http.Client
	apiKey  string
	base    string
	model   string
	timeout time.Duration
}

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultHTTPTimeout = 30 * time.Second
)

func NewGroqClient(cfg GroqConfig) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("groq api key must be provided")
	}
	if cfg.Model == "" {
		return nil, errors.New("groq model must be provided")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultGroqBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &GroqClient{
		client:  client,
		apiKey:  cfg.APIKey,
		base:    strings.TrimRight(base, "/"),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

// Complete implements domain.Completer.
func (g *GroqClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.post(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", classify(groqProvider, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

// Stream implements domain.Completer by reading server-sent events. The
// client timeout applies until the response headers arrive.
func (g *GroqClient) Stream(ctx context.Context, req domain.CompletionRequest) (domain.CompletionStream, error) {
	ctx, stop, cancel := openStream(ctx, g.timeout)

	resp, err := g.post(ctx, req, true)
	if !stop() && err == nil {
		resp.Body.Close()
		err = context.DeadlineExceeded
	}
	if err != nil {
		cancel()
		return nil, classify(groqProvider, timedOut(ctx, err))
	}
	return &groqStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
		cancel:  cancel,
	}, nil
}

func (g *GroqClient) post(ctx context.Context, req domain.CompletionRequest, stream bool) (*http.Response, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("at least one message must be provided")
	}

	body := chatRequest{
		Model:            g.model,
		Stream:           stream,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		MaxTokens:        req.MaxTokens,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Messages:         make([]chatMessage, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, classify(groqProvider, fmt.Errorf("perform request: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, statusError(groqProvider, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp, nil
}

type groqStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	cancel  func()
	done    bool
}

func (s *groqStream) Recv() (string, error) {
	for !s.done && s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			break
		}
		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", classify(groqProvider, fmt.Errorf("decode chunk: %w", err))
		}
		var delta strings.Builder
		for _, choice := range chunk.Choices {
			delta.WriteString(choice.Delta.Content)
			if choice.FinishReason != nil {
				s.done = true
			}
		}
		if delta.Len() > 0 {
			return delta.String(), nil
		}
	}
	if err := s.scanner.Err(); err != nil && !s.done {
		return "", classify(groqProvider, fmt.Errorf("stream read: %w", err))
	}
	return "", io.EOF
}

func (s *groqStream) Close() error {
	s.cancel()
	return s.body.Close()
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Stream           bool          `json:"stream,omitempty"`
	Temperature      float32       `json:"temperature,omitempty"`
	TopP             float32       `json:"top_p,omitempty"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	FrequencyPenalty float32       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float32       `json:"presence_penalty,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

var _ domain.Completer = (*GroqClient)(nil)
