package domain

import "context"

// Completer abstracts any hosted text-completion provider.
type Completer interface {
	// Complete returns the full reply for the request.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Stream opens an incremental reply. The caller must Close the stream.
	Stream(ctx context.Context, req CompletionRequest) (CompletionStream, error)
}

// CompletionStream yields reply fragments until Recv returns io.EOF.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

type CompletionRequest struct {
	Messages         []ChatMessage
	Temperature      float32
	TopP             float32
	MaxTokens        int
	FrequencyPenalty float32
	PresencePenalty  float32
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

// Valid reports whether r is one of the three roles accepted from clients.
func (r Role) Valid() bool {
	switch r {
	case UserRole, AssistantRole, SystemRole:
		return true
	}
	return false
}
