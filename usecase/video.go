package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/utils/log"
)

// DefaultReplicaName is shown when the avatar's display name cannot be resolved.
const DefaultReplicaName = "AI Assistant"

// CallPolicy is applied to every video session.
var CallPolicy = domain.CallProperties{
	MaxCallDuration:          3600,
	ParticipantLeftTimeout:   120,
	ParticipantAbsentTimeout: 300,
	EnableRecording:          false,
	EnableClosedCaptions:     true,
	ApplyGreenscreen:         false,
	Language:                 "english",
}

// Introducer produces a persona's opening message.
type Introducer interface {
	Introduce(ctx context.Context, personaID string) (string, error)
}

// VideoGateway creates live video-avatar sessions. Unlike the completion
// gateway it has no fallback: every failure is returned to the caller.
type VideoGateway struct {
	personas  *domain.PersonaRegistry
	avatar    domain.Provider[domain.AvatarProvider]
	replicaID string
	intro     Introducer
	now       func() time.Time
}

func NewVideoGateway(personas *domain.PersonaRegistry, avatar domain.Provider[domain.AvatarProvider], replicaID string, intro Introducer) *VideoGateway {
	return &VideoGateway{
		personas:  personas,
		avatar:    avatar,
		replicaID: replicaID,
		intro:     intro,
		now:       time.Now,
	}
}

// Availability reports whether sessions can be created at all.
func (g *VideoGateway) Availability() (bool, string) {
	if !g.avatar.IsConfigured() {
		return false, g.avatar.Reason()
	}
	if g.replicaID == "" {
		return false, "avatar replica id missing"
	}
	return true, ""
}

// CreateSession starts a video conversation with the persona's avatar.
func (g *VideoGateway) CreateSession(ctx context.Context, personaID, userName string) (domain.VideoSession, error) {
	persona, err := g.personas.Get(personaID)
	if err != nil {
		return domain.VideoSession{}, err
	}

	avatar, err := g.avatar.Get()
	if err != nil {
		return domain.VideoSession{}, err
	}
	if g.replicaID == "" {
		return domain.VideoSession{}, fmt.Errorf("%w: avatar replica id missing", domain.ErrNotConfigured)
	}

	intro, err := g.intro.Introduce(ctx, persona.ID)
	if err != nil {
		return domain.VideoSession{}, fmt.Errorf("generating introduction: %w", err)
	}

	replicaName := g.replicaName(ctx, avatar)

	req := domain.VideoSessionRequest{
		ReplicaID:             g.replicaID,
		ConversationName:      SessionName(persona, userName, g.now()),
		ConversationalContext: ConversationalContext(persona, intro),
		CustomGreeting:        intro,
	}
	policy := CallPolicy
	req.Properties = &policy

	resp, err := avatar.CreateConversation(ctx, req)
	if err != nil {
		return domain.VideoSession{}, fmt.Errorf("creating video conversation: %w", err)
	}
	if resp.ConversationURL == "" {
		log.WithCtx(ctx).Error("Video provider response has no conversation url",
			zap.String("conversation_id", resp.ConversationID),
			zap.String("status", resp.Status))
		return domain.VideoSession{}, &domain.ProviderError{
			Provider: "avatar",
			Category: domain.CategoryContractViolation,
			Err:      fmt.Errorf("conversation %q has no joinable url", resp.ConversationID),
		}
	}

	return domain.VideoSession{
		ConversationID:   resp.ConversationID,
		ConversationURL:  resp.ConversationURL,
		ConversationName: resp.ConversationName,
		ReplicaName:      replicaName,
		Status:           resp.Status,
		Intro:            intro,
	}, nil
}

func (g *VideoGateway) replicaName(ctx context.Context, avatar domain.AvatarProvider) string {
	replica, err := avatar.GetReplica(ctx, g.replicaID)
	if err != nil {
		log.WithCtx(ctx).Warn("Could not resolve replica name, using default", zap.Error(err))
		return DefaultReplicaName
	}
	if replica.Name == "" {
		return DefaultReplicaName
	}
	return replica.Name
}

// SessionName labels a session, e.g. "Therapy Session with Sam - 10/19/2026".
func SessionName(persona domain.Persona, userName string, at time.Time) string {
	label := persona.SessionLabel
	if label == "" {
		label = "AI Conversation"
	}
	if userName != "" {
		label += " with " + userName
	}
	return label + " - " + at.Format("1/2/2006")
}

// ConversationalContext is the long-form instruction given to the avatar.
func ConversationalContext(persona domain.Persona, intro string) string {
	tone := persona.Tone
	if tone == "" {
		tone = " Please be helpful, professional, and engaging throughout the conversation."
	}
	return fmt.Sprintf("This is a %s conversation. %s%s", persona.ID, intro, tone)
}
