package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vivatalk/mediator/config"
	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/utils/log"
)

const (
	provider       = "tavus"
	defaultBaseURL = "https://tavusapi.com/v2"
	defaultTimeout = 30 * time.Second
)

// TavusClient talks to the Tavus conversational video API.
type TavusClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
	timeout time.Duration
}

func NewTavusClient(apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) (*TavusClient, error) {
	if apiKey == "" {
		return nil, errors.New("tavus api key must be provided")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &TavusClient{
		client:  httpClient,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}, nil
}

// NewProvider builds the avatar provider from configuration.
func NewProvider(ctx context.Context, cfg config.AvatarConfig) domain.Provider[domain.AvatarProvider] {
	client, err := NewTavusClient(cfg.APIKey, cfg.BaseURL, nil, cfg.Timeout)
	if err != nil {
		log.WithCtx(ctx).Error("TAVUS_API_KEY is missing or not configured, video conversations disabled")
		return domain.Unconfigured[domain.AvatarProvider]("video provider api key missing")
	}
	return domain.Configured[domain.AvatarProvider](client)
}

// CreateConversation implements domain.AvatarProvider.
func (t *TavusClient) CreateConversation(ctx context.Context, req domain.VideoSessionRequest) (domain.VideoSessionResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.VideoSessionResponse{}, fmt.Errorf("marshal conversation request: %w", err)
	}

	log.WithCtx(ctx).Info("Creating video conversation",
		zap.String("conversation_name", req.ConversationName),
		zap.Int("context_length", len(req.ConversationalContext)),
		zap.Int("greeting_length", len(req.CustomGreeting)),
		zap.String("replica_id", req.ReplicaID))

	var out domain.VideoSessionResponse
	if err := t.do(ctx, http.MethodPost, "/conversations", payload, &out); err != nil {
		return domain.VideoSessionResponse{}, err
	}

	log.WithCtx(ctx).Info("Video conversation created",
		zap.String("conversation_id", out.ConversationID),
		zap.String("status", out.Status))
	return out, nil
}

// GetReplica implements domain.AvatarProvider.
func (t *TavusClient) GetReplica(ctx context.Context, replicaID string) (domain.Replica, error) {
	var out domain.Replica
	if err := t.do(ctx, http.MethodGet, "/replicas/"+url.PathEscape(replicaID), nil, &out); err != nil {
		return domain.Replica{}, err
	}
	return out, nil
}

func (t *TavusClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.WithCtx(ctx).Error("Video provider returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", detail))
		return &domain.ProviderError{
			Provider:   provider,
			Category:   domain.CategoryForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ProviderError{
			Provider: provider,
			Category: domain.CategoryContractViolation,
			Err:      fmt.Errorf("decode %s response: %w", path, err),
		}
	}
	return nil
}

func transportError(err error) error {
	category := domain.CategoryNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		category = domain.CategoryTimeout
	} else if errors.Is(err, context.Canceled) {
		category = domain.CategoryUnknown
	}
	return &domain.ProviderError{Provider: provider, Category: category, Err: fmt.Errorf("perform request: %w", err)}
}

var _ domain.AvatarProvider = (*TavusClient)(nil)
