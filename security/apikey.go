package security

import (
	"crypto/subtle"

	"github.com/vivatalk/mediator/domain"
)

// APIKeyGuard checks the internal-call credential. Without a configured key
// it only lets requests through outside production.
type APIKeyGuard struct {
	hasher     domain.Hasher
	want       string
	production bool
}

func NewAPIKeyGuard(hasher domain.Hasher, key string, production bool) *APIKeyGuard {
	g := &APIKeyGuard{hasher: hasher, production: production}
	if key != "" {
		g.want = hasher.Hash([]byte(key))
	}
	return g
}

func (g *APIKeyGuard) Valid(presented string) bool {
	if g.want == "" {
		return !g.production
	}
	got := g.hasher.Hash([]byte(presented))
	return subtle.ConstantTimeCompare([]byte(got), []byte(g.want)) == 1
}
