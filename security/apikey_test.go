package security

import (
	"testing"

	"github.com/vivatalk/mediator/adapters/hasher"
)

func TestAPIKeyGuard(t *testing.T) {
	g := NewAPIKeyGuard(hasher.New(), "internal-key", true)
	if !g.Valid("internal-key") {
		t.Fatal("configured key rejected")
	}
	if g.Valid("wrong") || g.Valid("") {
		t.Fatal("wrong key accepted")
	}
}

func TestAPIKeyGuardUnconfigured(t *testing.T) {
	if !NewAPIKeyGuard(hasher.New(), "", false).Valid("") {
		t.Fatal("development mode without a key must allow")
	}
	if NewAPIKeyGuard(hasher.New(), "", true).Valid("anything") {
		t.Fatal("production without a key must deny")
	}
}
