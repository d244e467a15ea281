package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vivatalk/mediator/domain"
)

func videoGateway(avatar domain.Provider[domain.AvatarProvider], replicaID string, intro Introducer) *VideoGateway {
	gw := NewVideoGateway(domain.DefaultPersonas(), avatar, replicaID, intro)
	gw.now = func() time.Time { return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC) }
	return gw
}

func TestCreateSession(t *testing.T) {
	avatar := &stubAvatar{
		resp: domain.VideoSessionResponse{
			ConversationID:   "c-1",
			ConversationName: "Therapy Session with Sam - 10/19/2026",
			ConversationURL:  "https://video.example/c-1",
			Status:           "active",
		},
		replica: domain.Replica{ReplicaID: "r-1", Name: "Sarah"},
	}
	intro := &stubIntroducer{intro: "Hi, I'm Dr. Sarah."}
	gw := videoGateway(domain.Configured[domain.AvatarProvider](avatar), "r-1", intro)

	session, err := gw.CreateSession(context.Background(), "therapy", "Sam")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	want := domain.VideoSession{
		ConversationID:   "c-1",
		ConversationURL:  "https://video.example/c-1",
		ConversationName: "Therapy Session with Sam - 10/19/2026",
		ReplicaName:      "Sarah",
		Status:           "active",
		Intro:            "Hi, I'm Dr. Sarah.",
	}
	if session != want {
		t.Fatalf("unexpected session\n got %+v\nwant %+v", session, want)
	}

	req := avatar.requests[0]
	if req.ReplicaID != "r-1" || req.CustomGreeting != intro.intro {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.ConversationName != "Therapy Session with Sam - 10/19/2026" {
		t.Fatalf("unexpected name %q", req.ConversationName)
	}
	if !strings.HasPrefix(req.ConversationalContext, "This is a therapy conversation. Hi, I'm Dr. Sarah. Please maintain") {
		t.Fatalf("unexpected context %q", req.ConversationalContext)
	}
	p := req.Properties
	if p == nil || p.MaxCallDuration != 3600 || p.ParticipantLeftTimeout != 120 || p.ParticipantAbsentTimeout != 300 || p.EnableRecording || !p.EnableClosedCaptions {
		t.Fatalf("call policy not applied: %+v", p)
	}
}

func TestCreateSessionNotConfigured(t *testing.T) {
	intro := &stubIntroducer{intro: "hi"}

	gw := videoGateway(domain.Unconfigured[domain.AvatarProvider]("no key"), "r-1", intro)
	if _, err := gw.CreateSession(context.Background(), "therapy", ""); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("missing credential: expected ErrNotConfigured, got %v", err)
	}

	gw = videoGateway(domain.Configured[domain.AvatarProvider](&stubAvatar{}), "", intro)
	if _, err := gw.CreateSession(context.Background(), "therapy", ""); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("missing replica: expected ErrNotConfigured, got %v", err)
	}
	if intro.calls != 0 {
		t.Fatalf("introduction generated %d times before configuration check", intro.calls)
	}
}

func TestCreateSessionUnknownPersona(t *testing.T) {
	avatar := &stubAvatar{}
	gw := videoGateway(domain.Configured[domain.AvatarProvider](avatar), "r-1", &stubIntroducer{})
	if _, err := gw.CreateSession(context.Background(), "pirate", ""); !errors.Is(err, domain.ErrUnknownPersona) {
		t.Fatalf("expected ErrUnknownPersona, got %v", err)
	}
	if len(avatar.requests) != 0 {
		t.Fatal("avatar provider was called")
	}
}

func TestCreateSessionReplicaNameDefault(t *testing.T) {
	avatar := &stubAvatar{
		resp:       domain.VideoSessionResponse{ConversationID: "c", ConversationURL: "https://v/c"},
		replicaErr: errors.New("not found"),
	}
	gw := videoGateway(domain.Configured[domain.AvatarProvider](avatar), "r-1", &stubIntroducer{intro: "hi"})

	session, err := gw.CreateSession(context.Background(), "expert", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ReplicaName != DefaultReplicaName {
		t.Fatalf("expected default replica name, got %q", session.ReplicaName)
	}
}

func TestCreateSessionMissingURL(t *testing.T) {
	avatar := &stubAvatar{resp: domain.VideoSessionResponse{ConversationID: "c"}}
	gw := videoGateway(domain.Configured[domain.AvatarProvider](avatar), "r-1", &stubIntroducer{intro: "hi"})

	_, err := gw.CreateSession(context.Background(), "companion", "")
	if got := domain.CategoryOf(err); got != domain.CategoryContractViolation {
		t.Fatalf("expected contract violation, got %s (%v)", got, err)
	}
}

func TestCreateSessionPropagatesProviderError(t *testing.T) {
	upstream := &domain.ProviderError{Provider: "tavus", Category: domain.CategoryRateLimited, StatusCode: 429, Err: errors.New("slow down")}
	avatar := &stubAvatar{err: upstream}
	gw := videoGateway(domain.Configured[domain.AvatarProvider](avatar), "r-1", &stubIntroducer{intro: "hi"})

	_, err := gw.CreateSession(context.Background(), "creative", "")
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestSessionName(t *testing.T) {
	persona, _ := domain.DefaultPersonas().Get("creative")
	at := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

	if got := SessionName(persona, "", at); got != "Creative Collaboration - 3/4/2026" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := SessionName(domain.Persona{ID: "x"}, "Kim", at); got != "AI Conversation with Kim - 3/4/2026" {
		t.Fatalf("unexpected name %q", got)
	}
}
