package domain

import "context"

// AvatarProvider abstracts the hosted video-avatar service.
type AvatarProvider interface {
	CreateConversation(ctx context.Context, req VideoSessionRequest) (VideoSessionResponse, error)
	GetReplica(ctx context.Context, replicaID string) (Replica, error)
}

type VideoSessionRequest struct {
	ReplicaID             string          `json:"replica_id,omitempty"`
	PersonaID             string          `json:"persona_id,omitempty"`
	CallbackURL           string          `json:"callback_url,omitempty"`
	ConversationName      string          `json:"conversation_name"`
	ConversationalContext string          `json:"conversational_context"`
	CustomGreeting        string          `json:"custom_greeting,omitempty"`
	Properties            *CallProperties `json:"properties,omitempty"`
}

// CallProperties is the call policy attached to every video session.
// Durations are in seconds.
type CallProperties struct {
	MaxCallDuration          int    `json:"max_call_duration"`
	ParticipantLeftTimeout   int    `json:"participant_left_timeout"`
	ParticipantAbsentTimeout int    `json:"participant_absent_timeout"`
	EnableRecording          bool   `json:"enable_recording"`
	EnableClosedCaptions     bool   `json:"enable_closed_captions"`
	ApplyGreenscreen         bool   `json:"apply_greenscreen"`
	Language                 string `json:"language,omitempty"`
}

type VideoSessionResponse struct {
	ConversationID   string `json:"conversation_id"`
	ConversationName string `json:"conversation_name"`
	Status           string `json:"status"`
	ConversationURL  string `json:"conversation_url"`
	ReplicaID        string `json:"replica_id,omitempty"`
	PersonaID        string `json:"persona_id,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
}

type Replica struct {
	ReplicaID string `json:"replica_id"`
	Name      string `json:"replica_name"`
	Status    string `json:"status,omitempty"`
}

// VideoSession is what callers receive once a session has been created.
type VideoSession struct {
	ConversationID   string `json:"conversation_id"`
	ConversationURL  string `json:"conversation_url"`
	ConversationName string `json:"conversation_name"`
	ReplicaName      string `json:"replica_name"`
	Status           string `json:"status"`
	Intro            string `json:"intro"`
}
