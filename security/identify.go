package security

import (
	"net/http"
	"strings"
)

// tokenSuffixLen is how much of a bearer token is kept as a rate-limit key.
const tokenSuffixLen = 10

// Identify derives the rate-limit key for a caller: "user:<token suffix>"
// when a bearer token is present, otherwise "ip:<address>" taken from the
// forwarding headers, or "ip:unknown".
func Identify(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != "" {
			if len(token) > tokenSuffixLen {
				token = token[len(token)-tokenSuffixLen:]
			}
			return "user:" + token
		}
	}

	forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if ip := strings.TrimSpace(forwarded); ip != "" {
		return "ip:" + ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}
