package security

import (
	"net/http"
	"strings"
)

// OriginGuard checks the Origin and Referer headers against an allow-list.
//
// A request carrying neither header is allowed: same-origin navigations and
// many non-browser clients omit both. The guard narrows cross-site use but is
// not an authentication boundary.
type OriginGuard struct {
	allowed []string
}

func NewOriginGuard(allowed []string) *OriginGuard {
	list := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if a = strings.TrimSpace(a); a != "" {
			list = append(list, a)
		}
	}
	return &OriginGuard{allowed: list}
}

func (g *OriginGuard) IsAllowed(r *http.Request) bool {
	if origin := r.Header.Get("Origin"); origin != "" && !g.matchesExactly(origin) {
		return false
	}
	if referer := r.Header.Get("Referer"); referer != "" && !g.matchesPrefix(referer) {
		return false
	}
	return true
}

// AllowedOrigins returns a copy of the allow-list.
func (g *OriginGuard) AllowedOrigins() []string {
	out := make([]string, len(g.allowed))
	copy(out, g.allowed)
	return out
}

func (g *OriginGuard) matchesExactly(origin string) bool {
	for _, a := range g.allowed {
		if origin == a {
			return true
		}
	}
	return false
}

func (g *OriginGuard) matchesPrefix(referer string) bool {
	for _, a := range g.allowed {
		if strings.HasPrefix(referer, a) {
			return true
		}
	}
	return false
}
